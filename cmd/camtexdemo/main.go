// Command camtexdemo runs the capture pipeline against the in-memory
// backend, feeds it synthetic camera frames, and writes the composited
// result to a PNG.
package main

import (
	"context"
	"flag"
	"image"
	"image/color"
	"image/png"
	"log"
	"os"
	"sync"
	"time"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/gogpu/camtex"
	"github.com/gogpu/camtex/backend"
	"github.com/gogpu/camtex/backend/nullgl"
)

func main() {
	var (
		width  = flag.Int("width", 640, "surface width")
		height = flag.Int("height", 480, "surface height")
		frames = flag.Int("frames", 30, "synthetic frames to push")
		rotate = flag.Int("rotate", 0, "device orientation in degrees (0, 90, 180, 270)")
		output = flag.String("output", "camtex.png", "output file")
	)
	flag.Parse()

	g, p, err := backend.Open(backend.BackendNull)
	if err != nil {
		log.Fatalf("No backend available: %v", err)
	}
	cam := &nullgl.Camera{}

	var (
		mu   sync.Mutex
		last camtex.Frame
	)
	sink := camtex.SinkFunc(func(f camtex.Frame) {
		mu.Lock()
		last = f
		mu.Unlock()
	})

	sess := camtex.New(g, p, cam,
		camtex.WithSurfaceSize(*width, *height),
		camtex.WithOrientation(camtex.FixedOrientation(*rotate)),
		camtex.WithOffscreenTarget(*width, *height, sink),
	)
	errc := sess.Start()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := sess.Stream(ctx); err != nil {
		log.Fatalf("Pipeline failed to start: %v", err)
	}

	for i := 0; i < *frames; i++ {
		pix := gradientFrame(*width, *height, i, *frames)
		cam.Push(pix, *width, *height, mgl32.Ident4(), int64(i)*33_000_000)
		time.Sleep(5 * time.Millisecond)
	}
	// Let the draw loop drain the final frame before closing.
	time.Sleep(50 * time.Millisecond)

	if err := sess.Close(); err != nil {
		log.Fatalf("Close failed: %v", err)
	}
	<-sess.Done()
	select {
	case err := <-errc:
		if err != nil {
			log.Fatalf("Pipeline failed: %v", err)
		}
	default:
	}

	mu.Lock()
	frame := last
	mu.Unlock()
	if frame.Pixels == nil {
		log.Fatal("No frame reached the sink")
	}
	if err := savePNG(*output, frame); err != nil {
		log.Fatalf("Failed to save: %v", err)
	}
	log.Printf("Demo saved to %s (%dx%d)\n", *output, frame.Width, frame.Height)
}

// gradientFrame builds an RGBA test pattern that shifts hue across frames so
// motion is visible in the readback.
func gradientFrame(w, h, i, n int) []byte {
	pix := make([]byte, w*h*4)
	phase := float64(i) / float64(n)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			o := (y*w + x) * 4
			pix[o+0] = byte(255 * float64(x) / float64(w))
			pix[o+1] = byte(255 * float64(y) / float64(h))
			pix[o+2] = byte(255 * phase)
			pix[o+3] = 255
		}
	}
	return pix
}

// savePNG writes the frame bottom-up, since readback rows start at the
// bottom of the render target.
func savePNG(path string, f camtex.Frame) error {
	img := image.NewRGBA(image.Rect(0, 0, f.Width, f.Height))
	for y := 0; y < f.Height; y++ {
		src := (f.Height - 1 - y) * f.Stride
		for x := 0; x < f.Width; x++ {
			o := src + x*4
			img.SetRGBA(x, y, color.RGBA{f.Pixels[o], f.Pixels[o+1], f.Pixels[o+2], f.Pixels[o+3]})
		}
	}
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return png.Encode(file, img)
}
