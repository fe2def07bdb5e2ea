// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package vk

import (
	"slices"

	vk "github.com/goki/vulkan"
)

const (
	// Instance extensions.
	extSurface, extSurfaceS               = iota, "VK_KHR_surface"
	extDisplay, extDisplayS               = iota, "VK_KHR_display"
	extAndroidSurface, extAndroidSurfaceS = iota, "VK_KHR_android_surface"
	extWaylandSurface, extWaylandSurfaceS = iota, "VK_KHR_wayland_surface"
	extWin32Surface, extWin32SurfaceS     = iota, "VK_KHR_win32_surface"
	extXCBSurface, extXCBSurfaceS         = iota, "VK_KHR_xcb_surface"
	extMetalSurface, extMetalSurfaceS     = iota, "VK_EXT_metal_surface"

	// Device extensions.
	extSwapchain, extSwapchainS = iota, "VK_KHR_swapchain"

	extN = iota
)

// Platform surface extensions, in order of preference.
var surfaceExts = [...]struct {
	ind  int
	name string
}{
	{extWaylandSurface, extWaylandSurfaceS},
	{extXCBSurface, extXCBSurfaceS},
	{extWin32Surface, extWin32SurfaceS},
	{extAndroidSurface, extAndroidSurfaceS},
	{extMetalSurface, extMetalSurfaceS},
	{extDisplay, extDisplayS},
}

const validationLayerS = "VK_LAYER_KHRONOS_validation"

// safeString returns s with a NUL terminator.
func safeString(s string) string { return s + "\x00" }

// safeStrings returns a copy of ss with NUL terminators.
func safeStrings(ss []string) []string {
	res := make([]string, len(ss))
	for i, s := range ss {
		res[i] = safeString(s)
	}
	return res
}

// instanceExts returns a list containing the names of all
// instance extensions advertised by the Vulkan
// implementation.
func instanceExts() (exts []string, err error) {
	var n uint32
	if err = checkResult(vk.EnumerateInstanceExtensionProperties("", &n, nil)); err != nil || n == 0 {
		return
	}
	props := make([]vk.ExtensionProperties, n)
	if err = checkResult(vk.EnumerateInstanceExtensionProperties("", &n, props)); err != nil {
		return
	}
	exts = make([]string, n)
	for i := range props[:n] {
		props[i].Deref()
		exts[i] = vk.ToString(props[i].ExtensionName[:])
	}
	return
}

// deviceExts returns a list containing the names of all
// device extensions advertised by the Vulkan
// implementation.
func deviceExts(pd vk.PhysicalDevice) (exts []string, err error) {
	var n uint32
	if err = checkResult(vk.EnumerateDeviceExtensionProperties(pd, "", &n, nil)); err != nil || n == 0 {
		return
	}
	props := make([]vk.ExtensionProperties, n)
	if err = checkResult(vk.EnumerateDeviceExtensionProperties(pd, "", &n, props)); err != nil {
		return
	}
	exts = make([]string, n)
	for i := range props[:n] {
		props[i].Deref()
		exts[i] = vk.ToString(props[i].ExtensionName[:])
	}
	return
}

// selectInstanceExts selects the surface extensions to
// enable. It returns their names and ext* indices.
func selectInstanceExts() (names []string, inds []int) {
	from, err := instanceExts()
	if err != nil {
		return
	}
	return pickSurfaceExts(from)
}

// pickSurfaceExts picks VK_KHR_surface and every platform
// surface extension present in from. It picks nothing if
// VK_KHR_surface is not present.
func pickSurfaceExts(from []string) (names []string, inds []int) {
	if !slices.Contains(from, extSurfaceS) {
		return
	}
	names = []string{extSurfaceS}
	inds = []int{extSurface}
	for _, e := range surfaceExts {
		if slices.Contains(from, e.name) {
			names = append(names, e.name)
			inds = append(inds, e.ind)
		}
	}
	return
}

// validationLayers returns the validation layer names
// that are present.
func validationLayers() []string {
	var n uint32
	if checkResult(vk.EnumerateInstanceLayerProperties(&n, nil)) != nil || n == 0 {
		return nil
	}
	props := make([]vk.LayerProperties, n)
	if checkResult(vk.EnumerateInstanceLayerProperties(&n, props)) != nil {
		return nil
	}
	for i := range props[:n] {
		props[i].Deref()
		if vk.ToString(props[i].LayerName[:]) == validationLayerS {
			return []string{validationLayerS}
		}
	}
	return nil
}
