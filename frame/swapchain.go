package frame

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v2/common"
	"github.com/vkngwrapper/core/v2/core1_0"
	"github.com/vkngwrapper/easel/device"
	"github.com/vkngwrapper/extensions/v2/khr_surface"
	"github.com/vkngwrapper/extensions/v2/khr_swapchain"
	"golang.org/x/exp/slog"
)

// SwapchainOptions selects the surface format and present mode. Preferences fall
// back to whatever the surface actually offers.
type SwapchainOptions struct {
	// PreferredFormat defaults to core1_0.FormatB8G8R8A8SRGB
	PreferredFormat core1_0.Format
	// PreferredColorSpace defaults to khr_surface.ColorSpaceSRGBNonlinear
	PreferredColorSpace khr_surface.ColorSpace
	// PreferredPresentMode defaults to FIFO, which is always available
	PreferredPresentMode khr_surface.PresentMode
	// FallbackExtent is used when the surface does not mandate an extent
	FallbackExtent core1_0.Extent2D
}

// Swapchain wraps a khr_swapchain.Swapchain together with its images, views, and
// the selection data needed to rebuild it after an out-of-date result.
type Swapchain struct {
	device    *device.Device
	surface   khr_surface.Surface
	extension khr_swapchain.Extension
	logger    *slog.Logger

	options       SwapchainOptions
	swapchain     khr_swapchain.Swapchain
	surfaceFormat khr_surface.SurfaceFormat
	presentMode   khr_surface.PresentMode
	extent        core1_0.Extent2D
	images        []core1_0.Image
	views         []core1_0.ImageView
}

// NewSwapchain builds a swapchain for surface. The device must have been created
// with khr_swapchain enabled.
func NewSwapchain(dev *device.Device, surface khr_surface.Surface, options SwapchainOptions) (*Swapchain, common.VkResult, error) {
	extension := dev.ExtensionData().Swapchain
	if extension == nil {
		return nil, core1_0.VKErrorUnknown, errors.New("the device was created without khr_swapchain")
	}

	if options.PreferredFormat == core1_0.FormatUndefined {
		options.PreferredFormat = core1_0.FormatB8G8R8A8SRGB
		options.PreferredColorSpace = khr_surface.ColorSpaceSRGBNonlinear
	}

	s := &Swapchain{
		device:    dev,
		surface:   surface,
		extension: extension,
		logger:    dev.Logger(),
		options:   options,
	}

	res, err := s.build(nil)
	if err != nil {
		return nil, res, err
	}
	return s, res, nil
}

func (s *Swapchain) build(oldSwapchain khr_swapchain.Swapchain) (common.VkResult, error) {
	capabilities, _, err := s.surface.PhysicalDeviceSurfaceCapabilities(s.device.PhysicalDevice())
	if err != nil {
		return core1_0.VKErrorUnknown, err
	}

	formats, _, err := s.surface.PhysicalDeviceSurfaceFormats(s.device.PhysicalDevice())
	if err != nil {
		return core1_0.VKErrorUnknown, err
	}
	presentModes, _, err := s.surface.PhysicalDeviceSurfacePresentModes(s.device.PhysicalDevice())
	if err != nil {
		return core1_0.VKErrorUnknown, err
	}

	s.surfaceFormat = formats[0]
	for _, format := range formats {
		if format.Format == s.options.PreferredFormat && format.ColorSpace == s.options.PreferredColorSpace {
			s.surfaceFormat = format
			break
		}
	}

	s.presentMode = khr_surface.PresentModeFIFO
	for _, presentMode := range presentModes {
		if presentMode == s.options.PreferredPresentMode {
			s.presentMode = presentMode
			break
		}
	}

	s.extent = capabilities.CurrentExtent
	if s.extent.Width == -1 {
		s.extent = s.options.FallbackExtent
	}

	imageCount := capabilities.MinImageCount + 1
	if capabilities.MaxImageCount > 0 && imageCount > capabilities.MaxImageCount {
		imageCount = capabilities.MaxImageCount
	}

	swapchain, res, err := s.extension.CreateSwapchain(s.device.Vulkan(), s.device.AllocationCallbacks(), khr_swapchain.SwapchainCreateInfo{
		Surface: s.surface,

		MinImageCount:    imageCount,
		ImageFormat:      s.surfaceFormat.Format,
		ImageColorSpace:  s.surfaceFormat.ColorSpace,
		ImageExtent:      s.extent,
		ImageArrayLayers: 1,
		ImageUsage:       core1_0.ImageUsageColorAttachment,

		ImageSharingMode: core1_0.SharingModeExclusive,

		PreTransform:   capabilities.CurrentTransform,
		CompositeAlpha: khr_surface.CompositeAlphaOpaque,
		PresentMode:    s.presentMode,
		Clipped:        true,

		OldSwapchain: oldSwapchain,
	})
	if err != nil {
		return res, err
	}
	s.swapchain = swapchain

	images, _, err := swapchain.SwapchainImages()
	if err != nil {
		return core1_0.VKErrorUnknown, err
	}
	s.images = images

	s.views = nil
	for _, image := range images {
		view, _, err := s.device.Vulkan().CreateImageView(s.device.AllocationCallbacks(), core1_0.ImageViewCreateInfo{
			ViewType: core1_0.ImageViewType2D,
			Image:    image,
			Format:   s.surfaceFormat.Format,
			SubresourceRange: core1_0.ImageSubresourceRange{
				AspectMask: core1_0.ImageAspectColor,
				LevelCount: 1,
				LayerCount: 1,
			},
		})
		if err != nil {
			return core1_0.VKErrorUnknown, err
		}
		s.views = append(s.views, view)
	}

	s.logger.Debug("Swapchain::build",
		slog.Int("ImageCount", len(images)),
		slog.String("Format", s.surfaceFormat.Format.String()),
		slog.Int("Width", s.extent.Width),
		slog.Int("Height", s.extent.Height),
	)

	return res, nil
}

// Rebuild recreates the swapchain against the surface's current state, reusing
// the old swapchain for resource carry-over. Callers must ensure no acquired
// image is still in flight.
func (s *Swapchain) Rebuild() (common.VkResult, error) {
	_, err := s.device.WaitIdle()
	if err != nil {
		return core1_0.VKErrorUnknown, err
	}

	old := s.swapchain
	s.destroyViews()

	res, err := s.build(old)
	if old != nil {
		old.Destroy(s.device.AllocationCallbacks())
	}
	return res, err
}

func (s *Swapchain) Vulkan() khr_swapchain.Swapchain { return s.swapchain }

func (s *Swapchain) Format() core1_0.Format { return s.surfaceFormat.Format }

func (s *Swapchain) Extent() core1_0.Extent2D { return s.extent }

func (s *Swapchain) ImageCount() int { return len(s.images) }

func (s *Swapchain) Image(index int) core1_0.Image { return s.images[index] }

func (s *Swapchain) ImageView(index int) core1_0.ImageView { return s.views[index] }

func (s *Swapchain) destroyViews() {
	for _, view := range s.views {
		view.Destroy(s.device.AllocationCallbacks())
	}
	s.views = nil
}

func (s *Swapchain) Destroy() {
	s.destroyViews()
	if s.swapchain != nil {
		s.swapchain.Destroy(s.device.AllocationCallbacks())
		s.swapchain = nil
	}
}
