package scanner

import (
	"image"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	docimg "github.com/ironsheep/docscan/internal/imaging"
)

// Frame is one image from a live source such as a camera.
type Frame struct {
	Image image.Image

	// Rotation is the clockwise rotation, in degrees, needed to show the
	// frame upright.
	Rotation int

	// PreviewWidth and PreviewHeight, when both set, crop the frame to the
	// preview's aspect ratio before detection.
	PreviewWidth  int
	PreviewHeight int
}

// FrameResult is the scan of one accepted frame.
type FrameResult struct {
	// Seq numbers accepted frames from 1.
	Seq uint64

	// Result is nil when Err is set.
	Result *ScanResult
	Err    error
}

// FrameWorker analyses frames one at a time. A frame submitted while another
// is being analysed, or whose result has not been received yet, is dropped.
type FrameWorker struct {
	scanner *Scanner
	log     *logrus.Entry

	in      chan Frame
	results chan FrameResult
	done    chan struct{}

	seq     uint64
	dropped atomic.Uint64

	once sync.Once
	wg   sync.WaitGroup
}

// NewFrameWorker starts a worker that scans frames with s. Call Close to
// stop it.
func NewFrameWorker(s *Scanner) *FrameWorker {
	w := &FrameWorker{
		scanner: s,
		log:     s.log.WithField("worker", "frame"),
		in:      make(chan Frame),
		results: make(chan FrameResult),
		done:    make(chan struct{}),
	}
	w.wg.Add(1)
	go w.run()
	return w
}

// Submit hands f to the worker. It never blocks and reports whether the frame
// was accepted.
func (w *FrameWorker) Submit(f Frame) bool {
	select {
	case <-w.done:
		return false
	default:
	}

	select {
	case w.in <- f:
		return true
	default:
		w.dropped.Add(1)
		return false
	}
}

// Results delivers one FrameResult per accepted frame. It is closed by Close.
func (w *FrameWorker) Results() <-chan FrameResult {
	return w.results
}

// Dropped returns how many frames were rejected because the worker was busy.
func (w *FrameWorker) Dropped() uint64 {
	return w.dropped.Load()
}

// Close stops the worker, abandoning any undelivered result, and closes the
// results channel.
func (w *FrameWorker) Close() {
	w.once.Do(func() {
		close(w.done)
		w.wg.Wait()
		close(w.results)
	})
}

func (w *FrameWorker) run() {
	defer w.wg.Done()
	for {
		select {
		case <-w.done:
			return
		case f := <-w.in:
			w.seq++
			res := FrameResult{Seq: w.seq}
			res.Result, res.Err = w.process(f)
			if res.Err != nil {
				w.log.WithError(res.Err).WithField("seq", res.Seq).Debug("Frame scan failed")
			}

			select {
			case w.results <- res:
			case <-w.done:
				return
			}
		}
	}
}

func (w *FrameWorker) process(f Frame) (*ScanResult, error) {
	img, err := docimg.OrientFrame(f.Image, f.Rotation)
	if err != nil {
		return nil, err
	}
	if f.PreviewWidth > 0 && f.PreviewHeight > 0 {
		img, err = docimg.CropToAspect(img, f.PreviewWidth, f.PreviewHeight)
		if err != nil {
			return nil, err
		}
	}
	return w.scanner.Scan(img)
}
