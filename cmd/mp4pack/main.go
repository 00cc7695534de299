// Command mp4pack packages a single elementary stream, already parsed into
// samples by an upstream demuxer, into a fragmented MP4/CMAF output: a VOD
// single-segment file by default, optionally CENC-protected. Demuxing the
// source container, MPD/HLS generation and key acquisition are external
// collaborators per this module's scope; mp4pack's input is a small JSON
// sample manifest standing in for whatever upstream parser a real pipeline
// would use.
package main

import (
	"encoding/hex"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/tetsuo/dashmux/bmff"
	"github.com/tetsuo/dashmux/cenc"
	"github.com/tetsuo/dashmux/media"
	"github.com/tetsuo/dashmux/mux"
	"github.com/tetsuo/dashmux/segment"
)

// manifest is the JSON shape mp4pack reads in place of a real demuxer.
type manifest struct {
	Track struct {
		ID             uint32 `json:"id"`
		Kind           string `json:"kind"` // "video" or "audio"
		Timescale      uint32 `json:"timescale"`
		Width          uint32 `json:"width,omitempty"`
		Height         uint32 `json:"height,omitempty"`
		ChannelCount   uint16 `json:"channelCount,omitempty"`
		SampleRate     uint32 `json:"sampleRate,omitempty"`
		Language       string `json:"language"`
		Codec          string `json:"codec"`          // stsd entry fourcc, e.g. "avc1"
		CodecConfigHex string `json:"codecConfigHex"` // avcC/hvcC/esds payload
	} `json:"track"`
	Samples []struct {
		PTS      int64  `json:"pts"`
		DTS      int64  `json:"dts"`
		Duration uint32 `json:"duration"`
		IsSync   bool   `json:"isSync"`
		DataHex  string `json:"dataHex"`
	} `json:"samples"`
}

// rawCodecConfig implements media.CodecConfig from already-built decoder
// config bytes, since parsing codec-specific configuration is out of scope.
type rawCodecConfig struct {
	format bmff.BoxType
	data   []byte
}

func (c rawCodecConfig) SampleEntryFormat() [4]byte { return [4]byte(c.format) }
func (c rawCodecConfig) Bytes() []byte              { return c.data }

func main() {
	out := flag.String("out", "output.mp4", "output CMAF/MP4 file path")
	manifestPath := flag.String("manifest", "", "JSON sample manifest path")
	scheme := flag.String("scheme", "", "CENC scheme to encrypt with: cenc, cbc1, cens, cbcs (empty = unencrypted)")
	keyHex := flag.String("key", "", "16-byte AES key, hex-encoded (required if --scheme is set)")
	kidHex := flag.String("kid", "", "16-byte key ID, hex-encoded (required if --scheme is set)")
	clearLead := flag.Int("clear-lead", 0, "number of leading samples to leave unencrypted")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: %s --manifest=samples.json --out=output.mp4 [--scheme=cenc --key=... --kid=...]\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	if *manifestPath == "" {
		flag.Usage()
		os.Exit(1)
	}

	if err := run(*manifestPath, *out, *scheme, *keyHex, *kidHex, *clearLead); err != nil {
		log.Error().Err(err).Msg("mp4pack failed")
		os.Exit(1)
	}
}

func run(manifestPath, outPath, scheme, keyHex, kidHex string, clearLead int) error {
	raw, err := os.ReadFile(manifestPath)
	if err != nil {
		return fmt.Errorf("reading manifest: %w", err)
	}
	var m manifest
	if err := json.Unmarshal(raw, &m); err != nil {
		return fmt.Errorf("parsing manifest: %w", err)
	}

	kind := media.StreamVideo
	if m.Track.Kind == "audio" {
		kind = media.StreamAudio
	}

	codecConfig, err := hex.DecodeString(m.Track.CodecConfigHex)
	if err != nil {
		return fmt.Errorf("decoding codecConfigHex: %w", err)
	}

	info := media.StreamInfo{
		TrackID:      m.Track.ID,
		Kind:         kind,
		Timescale:    m.Track.Timescale,
		Language:     m.Track.Language,
		Width:        m.Track.Width,
		Height:       m.Track.Height,
		ChannelCount: m.Track.ChannelCount,
		SampleRate:   m.Track.SampleRate,
		Codec:        rawCodecConfig{format: bmff.BoxType(fourCC(m.Track.Codec)), data: codecConfig},
	}

	var enc *media.EncryptionConfig
	var key []byte
	if scheme != "" {
		key, err = hex.DecodeString(keyHex)
		if err != nil || len(key) != 16 {
			return fmt.Errorf("--key must be 16 bytes hex-encoded")
		}
		kid, err := hex.DecodeString(kidHex)
		if err != nil {
			return fmt.Errorf("decoding --kid: %w", err)
		}
		kidArr := cenc.NormalizeKeyID(kid)
		enc = &media.EncryptionConfig{
			Scheme:    fourCC(scheme),
			KeyID:     kidArr,
			Key:       key,
			ClearLead: clearLead,
		}
		info.Encryption = enc
	}

	track := mux.NewTrack(info)
	muxer := mux.NewMuxer(media.MuxerOptions{}, m.Track.Timescale, track)

	var fragEnc *cenc.FragmentEncryptor
	var ivSeq *cenc.IVSequencer
	if enc != nil {
		ivSize := cenc.IVSizeFor(*enc, false)
		if ivSize == 0 {
			ivSize = 8
		}
		ivSeq = cenc.NewRandomIVSequencer(ivSize)
		fragEnc, err = cenc.NewFragmentEncryptor(*enc, ivSeq)
		if err != nil {
			return fmt.Errorf("setting up encryption: %w", err)
		}
	}

	if len(m.Samples) == 0 {
		return fmt.Errorf("manifest has no samples")
	}

	fragment := segment.NewFragment(info.TrackID, uint64(m.Samples[0].DTS), fragEnc)
	for i, s := range m.Samples {
		data, err := hex.DecodeString(s.DataHex)
		if err != nil {
			return fmt.Errorf("decoding sample %d data: %w", i, err)
		}
		sample := media.MediaSample{
			TrackID:       info.TrackID,
			Data:          data,
			DTS:           s.DTS,
			PTS:           s.PTS,
			Duration:      s.Duration,
			IsSyncSample:  s.IsSync,
		}
		track.Observe(sample)
		if err := fragment.AddSample(sample); err != nil {
			return fmt.Errorf("adding sample %d: %w", i, err)
		}
	}

	segmenter := segment.NewSingleSegmenter(muxer, info.TrackID)
	if err := segmenter.AddFragment(fragment); err != nil {
		return fmt.Errorf("finalizing fragment: %w", err)
	}

	f, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("creating output file: %w", err)
	}
	defer f.Close()

	if err := segmenter.Finalize(f); err != nil {
		return fmt.Errorf("finalizing output: %w", err)
	}

	log.Info().Str("path", outPath).Int("samples", len(m.Samples)).Msg("wrote segment")
	return nil
}

func fourCC(s string) [4]byte {
	var f [4]byte
	copy(f[:], s)
	return f
}
