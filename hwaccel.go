//go:build !ios && !android && (amd64 || arm64)

package ffsnap

import (
	"errors"
	"fmt"

	"github.com/obinnaokechukwu/ffsnap/avcodec"
	"github.com/obinnaokechukwu/ffsnap/avutil"
	"github.com/obinnaokechukwu/ffsnap/internal/bindings"
)

var errNoHWDevice = errors.New("ffsnap: no usable hardware device")

// openHWDevice creates a device context of the first listed type the
// decoder can use. The caller owns the returned reference.
func openHWDevice(codec avcodec.Codec, names []string) (avutil.BufferRef, string, error) {
	if !avcodec.HWDeviceCtxSupported() {
		return nil, "", fmt.Errorf("%w: libavcodec %s", errNoHWDevice,
			bindings.FormatVersion(bindings.Version(bindings.AVCodec)))
	}

	var errs []error
	for _, name := range names {
		typ := avutil.HWDeviceFindTypeByName(name)
		if typ == avutil.HWDeviceTypeNone {
			errs = append(errs, fmt.Errorf("%s: unknown device type", name))
			continue
		}
		if !avcodec.SupportsHWDevice(codec, typ) {
			errs = append(errs, fmt.Errorf("%s: not supported by %s", name, avcodec.GetCodecName(codec)))
			continue
		}
		ref, err := avutil.HWDeviceCtxCreate(typ)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
			continue
		}
		return ref, name, nil
	}
	return nil, "", fmt.Errorf("%w: %w", errNoHWDevice, errors.Join(errs...))
}
