package tesseract

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os"
	"os/exec"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/otiai10/gosseract/v2"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/meditatva/rxocr/ocr"
)

type fakeClient struct {
	langs    []string
	prefix   string
	vars     map[string]string
	text     string
	textErr  error
	imageErr error
	closed   int
}

func (f *fakeClient) Close() error { f.closed++; return nil }

func (f *fakeClient) SetTessdataPrefix(prefix string) error { f.prefix = prefix; return nil }

func (f *fakeClient) SetLanguage(langs ...string) error {
	if len(langs) == 0 {
		return errors.New("languages cannot be empty")
	}
	f.langs = langs
	return nil
}

func (f *fakeClient) SetImageFromBytes([]byte) error { return f.imageErr }

func (f *fakeClient) SetVariable(key gosseract.SettableVariable, value string) error {
	if f.vars == nil {
		f.vars = make(map[string]string)
	}
	f.vars[string(key)] = value
	return nil
}

func (f *fakeClient) Text() (string, error) { return f.text, f.textErr }

func (f *fakeClient) GetBoundingBoxes(gosseract.PageIteratorLevel) ([]gosseract.BoundingBox, error) {
	if f.text == "" {
		return nil, nil
	}
	return []gosseract.BoundingBox{
		{Box: image.Rect(0, 0, 10, 10), Word: "Rx", Confidence: 80},
		{Box: image.Rect(12, 0, 40, 10), Word: "Paracetamol", Confidence: 60},
	}, nil
}

func newFakeEngine(fc *fakeClient, opts ...Option) *Engine {
	e := NewEngine(opts...)
	e.clientFactory = func() client { return fc }
	return e
}

func TestRecognizeMapsModelAndReleasesClient(t *testing.T) {
	fc := &fakeClient{text: "  Rx Paracetamol \n"}
	e := newFakeEngine(fc)

	var progress []float64
	req := ocr.NewRequest([]byte("img"), ocr.ModelHandwritten,
		ocr.WithProgress(func(f float64) { progress = append(progress, f) }),
		ocr.WithTesseractPSM(6),
	)
	res, err := e.Recognize(context.Background(), req)
	if err != nil {
		t.Fatalf("Recognize() error = %v", err)
	}
	if res.Text != "Rx Paracetamol" {
		t.Fatalf("unexpected text: %q", res.Text)
	}
	if res.Model != ocr.ModelHandwritten {
		t.Fatalf("unexpected model: %q", res.Model)
	}
	if !reflect.DeepEqual(fc.langs, []string{"handwritten"}) {
		t.Fatalf("unexpected languages: %v", fc.langs)
	}
	if fc.vars["tessedit_pageseg_mode"] != "6" {
		t.Fatalf("metadata not applied: %v", fc.vars)
	}
	if res.Confidence < 0.69 || res.Confidence > 0.71 {
		t.Fatalf("unexpected confidence: %v", res.Confidence)
	}
	if len(res.Words) != 2 {
		t.Fatalf("expected 2 words, got %d", len(res.Words))
	}
	if !reflect.DeepEqual(progress, []float64{0, 1}) {
		t.Fatalf("unexpected progress: %v", progress)
	}
	if fc.closed != 1 {
		t.Fatalf("client closed %d times", fc.closed)
	}
}

func TestRecognizeUnknownModelPassesThrough(t *testing.T) {
	fc := &fakeClient{text: "ok"}
	e := newFakeEngine(fc)
	if _, err := e.Recognize(context.Background(), ocr.NewRequest(nil, "deu")); err != nil {
		t.Fatalf("Recognize() error = %v", err)
	}
	if !reflect.DeepEqual(fc.langs, []string{"deu"}) {
		t.Fatalf("unexpected languages: %v", fc.langs)
	}
}

func TestRecognizeErrors(t *testing.T) {
	tests := []struct {
		name      string
		fc        *fakeClient
		model     string
		opts      []Option
		wantLoad  bool
		wantRecog bool
	}{
		{
			name:     "empty model",
			fc:       &fakeClient{},
			model:    "",
			wantLoad: true,
		},
		{
			name:     "missing trained data",
			fc:       &fakeClient{},
			model:    ocr.ModelHandwritten,
			opts:     []Option{WithTessdataPrefix(t.TempDir())},
			wantLoad: true,
		},
		{
			name:     "lazy init failure",
			fc:       &fakeClient{textErr: errors.New("failed to initialize TessBaseAPI with code -1")},
			model:    ocr.ModelHandwritten,
			wantLoad: true,
		},
		{
			name:      "bad image",
			fc:        &fakeClient{imageErr: errors.New("pix is nil")},
			model:     ocr.ModelGeneric,
			wantRecog: true,
		},
		{
			name:      "recognition failure",
			fc:        &fakeClient{textErr: errors.New("segfault-ish")},
			model:     ocr.ModelGeneric,
			wantRecog: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newFakeEngine(tt.fc, tt.opts...)
			var progress []float64
			req := ocr.NewRequest([]byte("img"), tt.model,
				ocr.WithProgress(func(f float64) { progress = append(progress, f) }))
			_, err := e.Recognize(context.Background(), req)
			if err == nil {
				t.Fatalf("expected error")
			}
			if len(progress) != 0 {
				t.Fatalf("progress reported before failure: %v", progress)
			}
			if got := ocr.IsModelLoad(err); got != tt.wantLoad {
				t.Fatalf("IsModelLoad = %v, want %v (%v)", got, tt.wantLoad, err)
			}
			if got := ocr.IsRecognition(err); got != tt.wantRecog {
				t.Fatalf("IsRecognition = %v, want %v (%v)", got, tt.wantRecog, err)
			}
			if tt.fc.closed != 1 {
				t.Fatalf("client closed %d times", tt.fc.closed)
			}
		})
	}
}

func TestRecognizeEmptyTextIsNotAnError(t *testing.T) {
	fc := &fakeClient{text: "   "}
	e := newFakeEngine(fc)
	res, err := e.Recognize(context.Background(), ocr.NewRequest(nil, ocr.ModelGeneric))
	if err != nil {
		t.Fatalf("Recognize() error = %v", err)
	}
	if !res.IsEmpty() {
		t.Fatalf("expected empty result, got %q", res.Text)
	}
}

func TestTessdataPrefixPresent(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "eng.traineddata"), []byte("x"), 0o644); err != nil {
		t.Fatalf("write trained data: %v", err)
	}
	fc := &fakeClient{text: "ok"}
	e := newFakeEngine(fc, WithTessdataPrefix(dir))
	if _, err := e.Recognize(context.Background(), ocr.NewRequest(nil, ocr.ModelGeneric)); err != nil {
		t.Fatalf("Recognize() error = %v", err)
	}
	if fc.prefix != dir {
		t.Fatalf("prefix not applied: %q", fc.prefix)
	}
}

func TestRecognizeCanceledContext(t *testing.T) {
	fc := &fakeClient{text: "ok"}
	e := newFakeEngine(fc)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := e.Recognize(ctx, ocr.NewRequest(nil, ocr.ModelGeneric)); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if fc.closed != 0 {
		t.Fatalf("client should not be acquired for a canceled context")
	}
}

// ensureTesseractAvailable checks that the tesseract binary is reachable.
func ensureTesseractAvailable(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("tesseract"); err != nil {
		t.Skip("tesseract not installed in PATH")
	}
}

func TestEngineRecognizePrintedText(t *testing.T) {
	ensureTesseractAvailable(t)

	img := image.NewRGBA(image.Rect(0, 0, 200, 80))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)

	d := &font.Drawer{
		Dst:  img,
		Src:  image.Black,
		Face: basicfont.Face7x13,
		Dot:  fixed.P(10, 50),
	}
	d.DrawString("Hello Rx")

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}

	res, err := NewEngine().Recognize(context.Background(),
		ocr.NewRequest(buf.Bytes(), ocr.ModelGeneric, ocr.WithFormat(ocr.ImageFormatPNG)))
	if err != nil {
		t.Fatalf("Recognize() error = %v", err)
	}
	if got := strings.ToLower(res.Text); !strings.Contains(got, "hello") {
		t.Fatalf("unexpected OCR output: %q", res.Text)
	}
}
