/*
 * Copyright (C) 2020-2025 Arm Limited or its affiliates and Contributors. All rights reserved.
 * SPDX-License-Identifier: Apache-2.0
 */

// Package field provides utilities to deal with optional structure fields,
// expressed as pointers. It was inspired by the kubernetes package
// https://pkg.go.dev/k8s.io/utils/pointer.
package field

// ToOptional returns a pointer to a value.
func ToOptional[T any](v T) *T {
	return &v
}

// Optional returns the value of an optional field or else returns defaultValue.
func Optional[T any](ptr *T, defaultValue T) T {
	if ptr != nil {
		return *ptr
	}
	return defaultValue
}
