package globeengine

import (
	"errors"
	"io"
	"io/fs"
	"log"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dhowden/tag"
	"github.com/hajimehoshi/ebiten/v2/audio"
	"github.com/hajimehoshi/go-mp3"
)

const (
	sampleRate   = 44100
	fadeDuration = 2 * time.Second
)

var ErrNoTracks = errors.New("no mp3 files found")

// Soundtrack plays a random track from Dir while the timeline is playing and
// fades it out when playback stops. All methods run on the game goroutine.
type Soundtrack struct {
	Dir        string
	OnMetadata func(song, artist, extra string)

	context    *audio.Context
	player     *audio.Player
	file       *os.File
	stoppingAt time.Time
}

func NewSoundtrack(dir string) *Soundtrack {
	return &Soundtrack{Dir: dir}
}

// findTracks lists every .mp3 under dir.
func findTracks(dir string) ([]string, error) {
	var tracks []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(strings.ToLower(d.Name()), ".mp3") {
			tracks = append(tracks, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(tracks) == 0 {
		return nil, ErrNoTracks
	}
	return tracks, nil
}

// trackInfo prefers embedded tags and falls back to a "Song - Artist" file
// name. extra is the parent directory when the track sits below dir.
func trackInfo(dir, path string, m tag.Metadata) (song, artist, extra string) {
	if m != nil {
		song, artist = m.Title(), m.Artist()
	}
	if song == "" {
		song = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		artist = ""
		if parts := strings.SplitN(song, " - ", 2); len(parts) == 2 {
			song, artist = parts[0], parts[1]
		}
	}
	if parent := filepath.Dir(path); parent != filepath.Clean(dir) && parent != "." {
		extra = filepath.Base(parent)
	}
	return song, artist, extra
}

// fadeVolume is the volume elapsed into a fade-out.
func fadeVolume(elapsed, fade time.Duration) float64 {
	if fade <= 0 || elapsed >= fade {
		return 0
	}
	if elapsed <= 0 {
		return 1
	}
	return 1 - float64(elapsed)/float64(fade)
}

// Play starts a random track unless one is already playing. A track that is
// fading out is cut and replaced.
func (s *Soundtrack) Play() error {
	if s.player != nil && s.stoppingAt.IsZero() {
		return nil
	}
	s.release()

	tracks, err := findTracks(s.Dir)
	if err != nil {
		return err
	}
	path := tracks[rand.Intn(len(tracks))]

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	m, err := tag.ReadFrom(f)
	if err != nil {
		m = nil
	}
	song, artist, extra := trackInfo(s.Dir, path, m)
	if s.OnMetadata != nil {
		s.OnMetadata(song, artist, extra)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		_ = f.Close()
		return err
	}

	d, err := mp3.NewDecoder(f)
	if err != nil {
		_ = f.Close()
		return err
	}
	var src io.Reader = d
	if d.SampleRate() != sampleRate {
		src = audio.Resample(d, d.Length(), d.SampleRate(), sampleRate)
	}

	if s.context == nil {
		s.context = audio.NewContext(sampleRate)
	}
	player, err := s.context.NewPlayer(src)
	if err != nil {
		_ = f.Close()
		return err
	}
	player.Play()
	s.player, s.file = player, f
	log.Printf("[AUDIO] Playing: %s", path)
	return nil
}

// Stop begins the fade-out.
func (s *Soundtrack) Stop(now time.Time) {
	if s.player != nil && s.stoppingAt.IsZero() {
		s.stoppingAt = now
	}
}

// Update applies the fade and releases the player once it is silent or the
// track has ended.
func (s *Soundtrack) Update(now time.Time) {
	if s.player == nil {
		return
	}
	if !s.player.IsPlaying() {
		s.release()
		return
	}
	if s.stoppingAt.IsZero() {
		return
	}
	vol := fadeVolume(now.Sub(s.stoppingAt), fadeDuration)
	if vol <= 0 {
		s.release()
		return
	}
	s.player.SetVolume(vol)
}

func (s *Soundtrack) release() {
	if s.player != nil {
		if err := s.player.Close(); err != nil {
			log.Printf("[AUDIO] Error closing player: %v", err)
		}
		s.player = nil
	}
	if s.file != nil {
		if err := s.file.Close(); err != nil {
			log.Printf("[AUDIO] Error closing track: %v", err)
		}
		s.file = nil
	}
	s.stoppingAt = time.Time{}
}

// Close stops playback immediately.
func (s *Soundtrack) Close() {
	s.release()
}
