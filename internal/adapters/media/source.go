package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/dkeye/Mesh/internal/core"
	"github.com/google/uuid"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc"
)

var errAlreadyAcquired = errors.New("source already acquired")

// claims holds the files currently captured by any Source in the process.
var claims = struct {
	sync.Mutex
	paths map[string]struct{}
}{paths: make(map[string]struct{})}

func claim(path string) bool {
	claims.Lock()
	defer claims.Unlock()
	if _, busy := claims.paths[path]; busy {
		return false
	}
	claims.paths[path] = struct{}{}
	return true
}

func unclaim(path string) {
	claims.Lock()
	defer claims.Unlock()
	delete(claims.paths, path)
}

// Config selects the capture inputs. An empty path means a synthetic track.
type Config struct {
	AudioFile string // Opus in Ogg
	VideoFile string // VP8 in IVF
}

type localStream struct {
	id     string
	tracks []webrtc.TrackLocal
}

func (s *localStream) ID() string                  { return s.id }
func (s *localStream) Tracks() []webrtc.TrackLocal { return s.tracks }

// Source captures one audio and one video track and paces samples into them
// until released.
type Source struct {
	cfg Config
	log zerolog.Logger

	mu       sync.Mutex
	stream   *localStream
	audio    *OutTrack
	video    *OutTrack
	readers  []sampleReader
	claimed  []string
	cancel   context.CancelFunc
	pumps    *conc.WaitGroup
	muted    bool
	videoOff bool
}

var _ core.MediaSource = (*Source)(nil)

func NewSource(cfg Config) *Source {
	return &Source{
		cfg: cfg,
		log: log.With().Str("module", "media").Logger(),
	}
}

func (s *Source) Acquire(ctx context.Context) (core.LocalStream, error) {
	if err := ctx.Err(); err != nil {
		return nil, &core.MediaAcquisitionError{Kind: core.MediaUnknown, Err: err}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stream != nil {
		return nil, &core.MediaAcquisitionError{Kind: core.MediaDeviceBusy, Err: errAlreadyAcquired}
	}

	audioIn, err := s.open(s.cfg.AudioFile, func(f *os.File) (sampleReader, error) {
		return newOggSampleReader(f)
	}, newSyntheticAudio)
	if err != nil {
		s.releaseInputsLocked()
		return nil, err
	}
	videoIn, err := s.open(s.cfg.VideoFile, func(f *os.File) (sampleReader, error) {
		return newIVFSampleReader(f)
	}, newSyntheticVideo)
	if err != nil {
		s.releaseInputsLocked()
		return nil, err
	}

	streamID := "mesh-" + uuid.NewString()
	audio, err := webrtc.NewTrackLocalStaticSample(webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeOpus}, "audio-"+uuid.NewString(), streamID)
	if err != nil {
		s.releaseInputsLocked()
		return nil, &core.MediaAcquisitionError{Kind: core.MediaUnknown, Err: err}
	}
	video, err := webrtc.NewTrackLocalStaticSample(webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeVP8}, "video-"+uuid.NewString(), streamID)
	if err != nil {
		s.releaseInputsLocked()
		return nil, &core.MediaAcquisitionError{Kind: core.MediaUnknown, Err: err}
	}

	s.audio, s.video = NewOutTrack(audio), NewOutTrack(video)
	s.audio.SetEnabled(!s.muted)
	s.video.SetEnabled(!s.videoOff)
	s.stream = &localStream{id: streamID, tracks: []webrtc.TrackLocal{audio, video}}

	pumpCtx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.pumps = conc.NewWaitGroup()
	audioLog := s.log.With().Str("kind", "audio").Logger()
	videoLog := s.log.With().Str("kind", "video").Logger()
	audioTrack, videoTrack := s.audio, s.video
	s.pumps.Go(func() { pump(pumpCtx, audioTrack, audioIn, audioLog) })
	s.pumps.Go(func() { pump(pumpCtx, videoTrack, videoIn, videoLog) })

	s.log.Info().
		Str("stream_id", streamID).
		Str("audio", inputName(s.cfg.AudioFile)).
		Str("video", inputName(s.cfg.VideoFile)).
		Msg("media acquired")
	return s.stream, nil
}

func inputName(path string) string {
	if path == "" {
		return "synthetic"
	}
	return path
}

// open claims and opens one input. Every error is a *core.MediaAcquisitionError.
func (s *Source) open(path string, decode func(*os.File) (sampleReader, error), synthetic func() *syntheticReader) (sampleReader, error) {
	if path == "" {
		r := synthetic()
		s.readers = append(s.readers, r)
		return r, nil
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, &core.MediaAcquisitionError{Kind: core.MediaUnknown, Err: err}
	}
	if !claim(abs) {
		return nil, &core.MediaAcquisitionError{Kind: core.MediaDeviceBusy, Err: fmt.Errorf("%s is in use", path)}
	}
	s.claimed = append(s.claimed, abs)

	f, err := os.Open(abs)
	if err != nil {
		return nil, acquisitionError(err)
	}
	r, err := decode(f)
	if err != nil {
		_ = f.Close()
		return nil, &core.MediaAcquisitionError{Kind: core.MediaUnknown, Err: fmt.Errorf("%s: %w", path, err)}
	}
	s.readers = append(s.readers, r)
	return r, nil
}

func acquisitionError(err error) *core.MediaAcquisitionError {
	switch {
	case errors.Is(err, fs.ErrPermission):
		return &core.MediaAcquisitionError{Kind: core.MediaPermissionDenied, Err: err}
	case errors.Is(err, fs.ErrNotExist):
		return &core.MediaAcquisitionError{Kind: core.MediaDeviceNotFound, Err: err}
	}
	return &core.MediaAcquisitionError{Kind: core.MediaUnknown, Err: err}
}

func (s *Source) releaseInputsLocked() {
	for _, r := range s.readers {
		if err := r.Close(); err != nil {
			s.log.Warn().Err(err).Msg("close input")
		}
	}
	s.readers = nil
	for _, p := range s.claimed {
		unclaim(p)
	}
	s.claimed = nil
}

// pump paces samples from r into t until ctx is done or r fails.
func pump(ctx context.Context, t *OutTrack, r sampleReader, logger zerolog.Logger) {
	sample, err := r.NextSample()
	if err != nil {
		logger.Error().Err(err).Msg("read sample, pump stopped")
		return
	}
	ticker := time.NewTicker(sample.Duration)
	defer ticker.Stop()
	current := sample.Duration

	for {
		if err := t.WriteSample(sample); err != nil && !errors.Is(err, io.ErrClosedPipe) {
			logger.Warn().Err(err).Msg("write sample")
		}

		select {
		case <-ctx.Done():
			logger.Debug().Uint64("written", t.Written()).Uint64("dropped", t.Dropped()).Msg("pump stopped")
			return
		case <-ticker.C:
		}

		sample, err = r.NextSample()
		if err != nil {
			logger.Error().Err(err).Msg("read sample, pump stopped")
			return
		}
		if sample.Duration != current {
			current = sample.Duration
			ticker.Reset(current)
		}
	}
}

func (s *Source) ToggleAudio() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.muted = !s.muted
	if s.audio != nil {
		s.audio.SetEnabled(!s.muted)
	}
	s.log.Info().Bool("muted", s.muted).Msg("audio toggled")
	return s.muted
}

func (s *Source) ToggleVideo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.videoOff = !s.videoOff
	if s.video != nil {
		s.video.SetEnabled(!s.videoOff)
	}
	s.log.Info().Bool("video_off", s.videoOff).Msg("video toggled")
	return s.videoOff
}

func (s *Source) State() core.LocalMediaState {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := core.LocalMediaState{Muted: s.muted, VideoOff: s.videoOff}
	if s.stream != nil {
		st.StreamID = s.stream.id
		st.Acquired = true
	}
	return st
}

// Release stops capture. Calling it again, or before Acquire, does nothing.
func (s *Source) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stream == nil {
		return
	}
	s.cancel()
	s.pumps.Wait()
	s.audio.Stop()
	s.video.Stop()
	s.releaseInputsLocked()
	s.log.Info().Str("stream_id", s.stream.id).Msg("media released")
	s.stream, s.cancel, s.pumps = nil, nil, nil
}
