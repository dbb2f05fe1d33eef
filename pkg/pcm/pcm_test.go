package pcm

import (
	"encoding/base64"
	"errors"
	"testing"
	"time"
)

func TestFloatToPCM16(t *testing.T) {
	t.Run("round trip", func(t *testing.T) {
		in := []float32{0, 0.5, -0.5, 0.25}
		out := PCM16ToFloat(FloatToPCM16(in))

		if len(out) != len(in) {
			t.Fatalf("expected %d samples, got %d", len(in), len(out))
		}

		for i := range in {
			diff := out[i] - in[i]
			if diff < 0 {
				diff = -diff
			}
			if diff > 0.001 {
				t.Errorf("sample %d: expected ~%f, got %f", i, in[i], out[i])
			}
		}
	})

	t.Run("clamps out of range", func(t *testing.T) {
		data := FloatToPCM16([]float32{2.0, -2.0})
		samples := BytesToSamples(data)

		if samples[0] != 32767 {
			t.Errorf("expected positive clamp to 32767, got %d", samples[0])
		}
		if samples[1] != -32767 {
			t.Errorf("expected negative clamp to -32767, got %d", samples[1])
		}
	})
}

func TestSampleByteConversion(t *testing.T) {
	samples := []int16{0, 1, -1, 32767, -32768, 12345}
	got := BytesToSamples(SamplesToBytes(samples))

	if len(got) != len(samples) {
		t.Fatalf("expected %d samples, got %d", len(samples), len(got))
	}
	for i := range samples {
		if got[i] != samples[i] {
			t.Errorf("sample %d: expected %d, got %d", i, samples[i], got[i])
		}
	}
}

func TestEncodeDecode(t *testing.T) {
	t.Run("blob carries rate in mime type", func(t *testing.T) {
		blob := EncodeSamples(make([]int16, 8), 16000)
		if blob.MIMEType != "audio/pcm;rate=16000" {
			t.Errorf("unexpected mime type: %s", blob.MIMEType)
		}
	})

	t.Run("round trip", func(t *testing.T) {
		raw := SamplesToBytes([]int16{1, -2, 3})
		blob := Encode(raw, 24000)

		got, err := Decode(blob.Data)
		if err != nil {
			t.Fatalf("decode failed: %v", err)
		}
		if string(got) != string(raw) {
			t.Error("decoded bytes mismatch")
		}
	})

	t.Run("malformed payload is a DecodeError", func(t *testing.T) {
		_, err := Decode("not base64!!!")
		if err == nil {
			t.Fatal("expected error")
		}

		var decErr *DecodeError
		if !errors.As(err, &decErr) {
			t.Errorf("expected *DecodeError, got %T", err)
		}
	})

	t.Run("decode accepts standard padding", func(t *testing.T) {
		payload := base64.StdEncoding.EncodeToString([]byte{1, 2, 3, 4})
		if _, err := Decode(payload); err != nil {
			t.Errorf("decode failed: %v", err)
		}
	})
}

func TestDuration(t *testing.T) {
	tests := []struct {
		name    string
		samples int
		rate    int
		want    time.Duration
	}{
		{"capture window 4096 at 16kHz", 4096, 16000, 256 * time.Millisecond},
		{"one second at 24kHz", 24000, 24000, time.Second},
		{"empty", 0, 16000, 0},
		{"zero rate", 100, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Duration(tt.samples, tt.rate); got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestBytesDuration(t *testing.T) {
	// 24,000 samples at 24kHz is exactly one second.
	data := make([]byte, 24000*BytesPerSample)
	if got := BytesDuration(data, 24000); got != time.Second {
		t.Errorf("expected 1s, got %v", got)
	}
}

func TestResample(t *testing.T) {
	t.Run("same rate is identity", func(t *testing.T) {
		in := []int16{1, 2, 3}
		out := Resample(in, 16000, 16000)
		if len(out) != 3 || out[0] != 1 || out[2] != 3 {
			t.Errorf("unexpected output: %v", out)
		}
	})

	t.Run("downsample halves length", func(t *testing.T) {
		in := make([]int16, 320)
		out := Resample(in, 32000, 16000)
		if len(out) != 160 {
			t.Errorf("expected 160 samples, got %d", len(out))
		}
	})

	t.Run("upsample interpolates", func(t *testing.T) {
		in := []int16{0, 100}
		out := Resample(in, 8000, 16000)
		if len(out) != 4 {
			t.Fatalf("expected 4 samples, got %d", len(out))
		}
		if out[1] != 50 {
			t.Errorf("expected interpolated value 50, got %d", out[1])
		}
	})

	t.Run("empty input", func(t *testing.T) {
		if out := Resample(nil, 16000, 24000); len(out) != 0 {
			t.Errorf("expected empty output, got %d samples", len(out))
		}
	})
}
