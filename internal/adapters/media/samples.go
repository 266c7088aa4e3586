package media

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	pionmedia "github.com/pion/webrtc/v4/pkg/media"
	"github.com/pion/webrtc/v4/pkg/media/ivfreader"
	"github.com/pion/webrtc/v4/pkg/media/oggreader"
)

const (
	oggPageDuration   = 20 * time.Millisecond
	opusSampleRate    = 48000
	syntheticVideoFPS = 30
)

var errUnsupportedCodec = errors.New("unsupported codec")

// sampleReader yields samples forever; file readers loop at end of file.
type sampleReader interface {
	NextSample() (pionmedia.Sample, error)
	Close() error
}

type oggSampleReader struct {
	f           *os.File
	r           *oggreader.OggReader
	lastGranule uint64
}

func newOggSampleReader(f *os.File) (*oggSampleReader, error) {
	r, _, err := oggreader.NewWith(f)
	if err != nil {
		return nil, fmt.Errorf("read ogg header: %w", err)
	}
	return &oggSampleReader{f: f, r: r}, nil
}

func (o *oggSampleReader) NextSample() (pionmedia.Sample, error) {
	page, header, err := o.r.ParseNextPage()
	if errors.Is(err, io.EOF) {
		if err := o.rewind(); err != nil {
			return pionmedia.Sample{}, err
		}
		page, header, err = o.r.ParseNextPage()
	}
	if err != nil {
		return pionmedia.Sample{}, fmt.Errorf("read ogg page: %w", err)
	}

	if header.GranulePosition < o.lastGranule {
		o.lastGranule = 0
	}
	count := header.GranulePosition - o.lastGranule
	o.lastGranule = header.GranulePosition
	d := time.Duration(float64(count) / opusSampleRate * float64(time.Second))
	if d <= 0 {
		d = oggPageDuration
	}
	return pionmedia.Sample{Data: page, Duration: d}, nil
}

func (o *oggSampleReader) rewind() error {
	if _, err := o.f.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("rewind ogg: %w", err)
	}
	r, _, err := oggreader.NewWith(o.f)
	if err != nil {
		return fmt.Errorf("read ogg header: %w", err)
	}
	o.r = r
	o.lastGranule = 0
	return nil
}

func (o *oggSampleReader) Close() error { return o.f.Close() }

type ivfSampleReader struct {
	f     *os.File
	r     *ivfreader.IVFReader
	frame time.Duration
}

func newIVFSampleReader(f *os.File) (*ivfSampleReader, error) {
	r, header, err := ivfreader.NewWith(f)
	if err != nil {
		return nil, fmt.Errorf("read ivf header: %w", err)
	}
	if header.FourCC != "VP80" {
		return nil, fmt.Errorf("%w: %q", errUnsupportedCodec, header.FourCC)
	}
	frame := time.Second / syntheticVideoFPS
	if header.TimebaseDenominator > 0 && header.TimebaseNumerator > 0 {
		frame = time.Duration(float64(header.TimebaseNumerator) / float64(header.TimebaseDenominator) * float64(time.Second))
	}
	return &ivfSampleReader{f: f, r: r, frame: frame}, nil
}

func (v *ivfSampleReader) NextSample() (pionmedia.Sample, error) {
	frame, _, err := v.r.ParseNextFrame()
	if errors.Is(err, io.EOF) {
		if err := v.rewind(); err != nil {
			return pionmedia.Sample{}, err
		}
		frame, _, err = v.r.ParseNextFrame()
	}
	if err != nil {
		return pionmedia.Sample{}, fmt.Errorf("read ivf frame: %w", err)
	}
	return pionmedia.Sample{Data: frame, Duration: v.frame}, nil
}

func (v *ivfSampleReader) rewind() error {
	if _, err := v.f.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("rewind ivf: %w", err)
	}
	r, _, err := ivfreader.NewWith(v.f)
	if err != nil {
		return fmt.Errorf("read ivf header: %w", err)
	}
	v.r = r
	return nil
}

func (v *ivfSampleReader) Close() error { return v.f.Close() }

// syntheticReader repeats one payload. Receivers see real RTP flow,
// not decodable media.
type syntheticReader struct {
	payload  []byte
	duration time.Duration
}

// opus TOC for a 20ms silent frame
var opusSilence = []byte{0xf8, 0xff, 0xfe}

func newSyntheticAudio() *syntheticReader {
	return &syntheticReader{payload: opusSilence, duration: oggPageDuration}
}

func newSyntheticVideo() *syntheticReader {
	// VP8 keyframe header for a 1x1 frame
	payload := []byte{0x10, 0x02, 0x00, 0x9d, 0x01, 0x2a, 0x01, 0x00, 0x01, 0x00}
	return &syntheticReader{payload: payload, duration: time.Second / syntheticVideoFPS}
}

func (s *syntheticReader) NextSample() (pionmedia.Sample, error) {
	data := make([]byte, len(s.payload))
	copy(data, s.payload)
	return pionmedia.Sample{Data: data, Duration: s.duration}, nil
}

func (s *syntheticReader) Close() error { return nil }
