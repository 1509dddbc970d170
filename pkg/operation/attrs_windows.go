// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

//go:build windows

package operation

import "syscall"

func attributes(path string) uint32 {
	p, err := syscall.UTF16PtrFromString(path)
	if err != nil {
		return 0
	}
	attrs, err := syscall.GetFileAttributes(p)
	if err != nil {
		return 0
	}
	return attrs
}

// isHidden reports the hidden attribute
func isHidden(path string) bool {
	return attributes(path)&syscall.FILE_ATTRIBUTE_HIDDEN != 0
}

// isSystem reports the system attribute
func isSystem(path string) bool {
	const fileAttributeSystem = 0x4
	return attributes(path)&fileAttributeSystem != 0
}
