//go:build !ios && !android && (amd64 || arm64)

package avcodec

import (
	"unsafe"

	"github.com/obinnaokechukwu/ffsnap/avutil"
	"github.com/obinnaokechukwu/ffsnap/internal/bindings"
)

// AV_CODEC_HW_CONFIG_METHOD_HW_DEVICE_CTX
const hwConfigMethodHWDeviceCtx = 0x01

var avcodecGetHWConfig func(codec unsafe.Pointer, index int32) unsafe.Pointer

func registerHWConfigBindings(lib bindings.Library) {
	bindings.Register(&avcodecGetHWConfig, lib, "avcodec_get_hw_config")
}

// HWConfig is a decoder's AVCodecHWConfig entry.
type HWConfig struct {
	PixFmt     avutil.PixelFormat
	Methods    int32
	DeviceType avutil.HWDeviceType
}

// HWConfigs lists the hardware configurations a decoder advertises.
func HWConfigs(codec Codec) []HWConfig {
	if codec == nil || avcodecGetHWConfig == nil {
		return nil
	}
	var out []HWConfig
	for i := int32(0); ; i++ {
		p := avcodecGetHWConfig(codec, i)
		if p == nil {
			return out
		}
		// {enum AVPixelFormat pix_fmt; int methods; enum AVHWDeviceType device_type}
		out = append(out, HWConfig{
			PixFmt:     avutil.PixelFormat(*(*int32)(p)),
			Methods:    *(*int32)(unsafe.Add(p, 4)),
			DeviceType: avutil.HWDeviceType(*(*int32)(unsafe.Add(p, 8))),
		})
	}
}

// SupportsHWDevice reports whether the decoder can decode through a device
// context of the given type.
func SupportsHWDevice(codec Codec, typ avutil.HWDeviceType) bool {
	for _, c := range HWConfigs(codec) {
		if c.DeviceType == typ && c.Methods&hwConfigMethodHWDeviceCtx != 0 {
			return true
		}
	}
	return false
}
