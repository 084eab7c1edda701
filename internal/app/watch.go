package app

import (
	"context"
	"image"
	"time"

	ui "github.com/gizak/termui/v3"
	"github.com/gizak/termui/v3/widgets"

	"github.com/relabs-tech/accel_computer/internal/accel"
	"github.com/relabs-tech/accel_computer/internal/adxl345"
)

// Watch view parameters.
const (
	watchAlpha    = 0.5
	watchBanner   = 2 * time.Second
	watchDotR     = 3
	watchRefresh  = 100 * time.Millisecond
	singleTapText = "Single Tap!"
	doubleTapText = "Double Tap!"
)

// WatchState is the model behind RunWatch: a moving average of X and Y
// that positions a dot, plus timed tap banners.
type WatchState struct {
	AvgX, AvgY float64
	Valid      bool
	Text       string

	singleAt time.Time
	doubleAt time.Time
}

// Update folds in one status read taken at now.
func (w *WatchState) Update(s accel.Sample, fresh bool, now time.Time) {
	if fresh {
		w.Text = s.String()
		w.AvgX = w.AvgX*(1-watchAlpha) + float64(s.X)*watchAlpha
		w.AvgY = w.AvgY*(1-watchAlpha) + float64(s.Y)*watchAlpha
		w.Valid = true
	}
	if s.Flags.Has(adxl345.SingleTap) {
		w.singleAt = now
	}
	if s.Flags.Has(adxl345.DoubleTap) {
		w.doubleAt = now
	}
}

// Banners returns the tap messages still showing at now.
func (w *WatchState) Banners(now time.Time) []string {
	var out []string
	if !w.singleAt.IsZero() && now.Sub(w.singleAt) < watchBanner {
		out = append(out, singleTapText)
	}
	if !w.doubleAt.IsZero() && now.Sub(w.doubleAt) < watchBanner {
		out = append(out, doubleTapText)
	}
	return out
}

// Dot returns the dot centre on a width×height plane, offset from the
// centre by the averaged raw X and Y and clamped to the plane.
func (w *WatchState) Dot(width, height int) (image.Point, bool) {
	if !w.Valid {
		return image.Point{}, false
	}
	p := image.Pt(int(w.AvgX)+width/2, int(w.AvgY)+height/2)
	p.X = clamp(p.X, watchDotR, width-1-watchDotR)
	p.Y = clamp(p.Y, watchDotR, height-1-watchDotR)
	return p, true
}

func clamp(v, lo, hi int) int {
	if hi < lo {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// RunWatch draws the live view in the terminal until q or Ctrl-C, or until
// ctx is done.
func RunWatch(ctx context.Context, sess *Session) error {
	if err := ui.Init(); err != nil {
		return err
	}
	defer ui.Close()

	header := widgets.NewParagraph()
	header.Title = "ADXL345"
	canvas := ui.NewCanvas()
	canvas.Title = "tilt"

	layout := func() {
		w, h := ui.TerminalDimensions()
		header.SetRect(0, 0, w, 5)
		canvas.SetRect(0, 5, w, h)
	}
	layout()

	var st WatchState
	events := ui.PollEvents()
	ticker := time.NewTicker(watchRefresh)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case e := <-events:
			switch e.ID {
			case "q", "<C-c>":
				return nil
			case "<Resize>":
				layout()
			}
			continue
		case <-ticker.C:
		}

		s, fresh, err := sess.Read(ctx)
		if err != nil {
			return err
		}
		now := time.Now()
		st.Update(s, fresh, now)

		header.Text = st.Text
		for _, b := range st.Banners(now) {
			header.Text += "\n" + b
		}

		// Braille canvas: 2×4 points per cell.
		inner := canvas.Inner
		c := ui.NewCanvas()
		c.Title = canvas.Title
		c.SetRect(canvas.Min.X, canvas.Min.Y, canvas.Max.X, canvas.Max.Y)
		if p, ok := st.Dot(inner.Dx()*2, inner.Dy()*4); ok {
			for dy := -watchDotR; dy <= watchDotR; dy++ {
				for dx := -watchDotR; dx <= watchDotR; dx++ {
					if dx*dx+dy*dy <= watchDotR*watchDotR {
						c.SetPoint(p.Add(image.Pt(dx, dy)), ui.ColorRed)
					}
				}
			}
		}
		canvas = c
		ui.Render(header, canvas)
	}
}
