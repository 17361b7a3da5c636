// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

package collapse

import (
	"strings"
	"unicode"
)

const (
	unknownSymbol = "[unknown]"
	jitMapPrefix  = "/tmp/perf-"
	jitMapSuffix  = ".map"
)

// stackLineParts splits a stack line into program counter, raw function name
// and module. Stack lines look like:
//
//	ffffffff8103ce3b native_safe_halt ([kernel.kallsyms])
//	ffffffff81aebbfe start_kernel ([kernel.kallsyms].init.text)
//	7f533952bc77 _dl_check_map_versions+0x597 (/usr/lib/ld-2.28.so)
//	7f53389994d0 [unknown] ([unknown])
//	           0 [unknown] ([unknown])
//
// The function name may contain spaces; the module is always the last word
// and is wrapped in parentheses.
func stackLineParts(line string) (pc, rawFunc, module string, ok bool) {
	line = strings.TrimLeftFunc(line, unicode.IsSpace)
	pc, rest, found := strings.Cut(line, " ")
	if !found {
		return
	}
	splitAt := strings.LastIndexByte(rest, ' ')
	if splitAt == -1 {
		return
	}
	rawFunc, module = rest[:splitAt], rest[splitAt+1:]
	if len(module) < 2 {
		return
	}
	module = module[1 : len(module)-1]
	ok = true
	return
}

// stripSymbolOffset removes a trailing "+0x<hex>" symbol offset.
func stripSymbolOffset(rawFunc string) string {
	offset := strings.LastIndex(rawFunc, "+0x")
	if offset == -1 {
		return rawFunc
	}
	for _, c := range rawFunc[offset+3:] {
		if !isHexDigit(c) {
			return rawFunc
		}
	}
	return rawFunc[:offset]
}

func isHexDigit(c rune) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

// withModuleFallback names an unknown symbol after the last path element of
// its module, e.g. "[libc-2.28.so]", or "[unknown]" when the module is also
// unknown. With includeAddrs the program counter is kept: "[libc-2.28.so <7f53...>]".
func withModuleFallback(module, rawFunc, pc string, includeAddrs bool) string {
	if rawFunc != unknownSymbol {
		return rawFunc
	}
	name := "unknown"
	if module != unknownSymbol {
		name = module[strings.LastIndexByte(module, '/')+1:]
	}
	if includeAddrs {
		return "[" + name + " <" + pc + ">]"
	}
	return "[" + name + "]"
}

// tidyGeneric replaces semicolons, which separate frames in folded output, and
// removes argument lists from function names. It leaves Go method names like
// "net/http.(*Client).Do" and C++ "(anonymous namespace)" markers alone.
func tidyGeneric(funcName string) string {
	funcName = strings.ReplaceAll(funcName, ";", ":")
	firstParen := strings.IndexByte(funcName, '(')
	if firstParen == -1 {
		return funcName
	}
	if strings.HasPrefix(funcName[firstParen:], "(anonymous namespace)") {
		return funcName
	}
	if firstParen > 0 && funcName[firstParen-1] == '.' {
		return funcName
	}
	return funcName[:firstParen]
}

// isKernelModule matches modules like "[kernel.kallsyms]", "[nf_conntrack_ipv4]"
// and "/lib/modules/4.3.0-rc1-virtual/build/vmlinux".
func isKernelModule(module string) bool {
	return (strings.HasPrefix(module, "[") || strings.HasSuffix(module, "vmlinux")) && module != unknownSymbol
}

// isJitModule matches perf map files written by JIT runtimes, e.g. "/tmp/perf-19982.map".
func isJitModule(module string) bool {
	return strings.HasPrefix(module, jitMapPrefix) && strings.HasSuffix(module, jitMapSuffix)
}

// normalizeFrame turns the parts of a stack line into a folded frame name.
// keep is false for frames that must not appear in the stack.
func normalizeFrame(pc, rawFunc, module string, config Config) (frame string, keep bool) {
	rawFunc = stripSymbolOffset(rawFunc)
	// perf emits process names as pseudo frames, e.g. "(/usr/bin/foo)"
	if strings.HasPrefix(rawFunc, "(") {
		return
	}
	frame = tidyGeneric(withModuleFallback(module, rawFunc, pc, config.IncludeAddrs))
	if config.AnnotateKernel && isKernelModule(module) {
		frame += "_[k]"
	}
	if config.AnnotateJit && isJitModule(module) {
		frame += "_[j]"
	}
	keep = true
	return
}
