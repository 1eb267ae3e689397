package detection

import (
	"fmt"
	"image"
	"math"
	"os"
	"sort"
	"strconv"
	"sync"

	"github.com/teslashibe/go-rangeaware/internal/log"
	"gocv.io/x/gocv"
)

// YOLODetector uses YOLOv8 for general object detection
type YOLODetector struct {
	net    gocv.Net
	config YOLOConfig
	mu     sync.Mutex
}

// YOLOConfig holds YOLO detector configuration
type YOLOConfig struct {
	ModelPath        string
	ConfidenceThresh float32
	NMSThresh        float32
	InputSize        int // Square network input, in pixels
}

// DefaultYOLOConfig returns defaults for YOLOv8n at a 640px input.
func DefaultYOLOConfig() YOLOConfig {
	return YOLOConfig{
		ModelPath:        "models/yolov8n.onnx",
		ConfidenceThresh: 0.3,
		NMSThresh:        0.45,
		InputSize:        640,
	}
}

// NewYOLO creates a new YOLO object detector
func NewYOLO(cfg YOLOConfig) (*YOLODetector, error) {
	if cfg.InputSize <= 0 {
		return nil, fmt.Errorf("invalid input size %d", cfg.InputSize)
	}

	if _, err := os.Stat(cfg.ModelPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", ErrModelNotFound, cfg.ModelPath)
	}

	net := gocv.ReadNetFromONNX(cfg.ModelPath)
	if net.Empty() {
		return nil, fmt.Errorf("failed to load YOLO model from %s", cfg.ModelPath)
	}

	net.SetPreferableBackend(gocv.NetBackendDefault)
	net.SetPreferableTarget(gocv.NetTargetCPU)

	return &YOLODetector{
		net:    net,
		config: cfg,
	}, nil
}

// Detect finds objects in the frame
func (d *YOLODetector) Detect(frame gocv.Mat) ([]Detection, error) {
	if frame.Empty() || frame.Cols() <= 0 || frame.Rows() <= 0 {
		return nil, ErrEmptyFrame
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	size := image.Pt(d.config.InputSize, d.config.InputSize)
	blob := gocv.BlobFromImage(frame, 1.0/255.0, size, gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()

	d.net.SetInput(blob, "")

	output := d.net.Forward("")
	defer output.Close()

	dets, err := d.parseOutput(output, frame.Cols(), frame.Rows())
	if err != nil {
		return nil, err
	}

	if len(dets) > 0 {
		log.Debug("yolo detections", "count", len(dets))
	}
	return dets, nil
}

// parseOutput decodes a YOLOv8 output tensor of shape [1, 4+classes, anchors].
// Each anchor column holds (cx, cy, w, h) in network input pixels followed by
// one score per class.
func (d *YOLODetector) parseOutput(output gocv.Mat, frameW, frameH int) ([]Detection, error) {
	dims := output.Size()
	if len(dims) < 2 {
		return nil, fmt.Errorf("unexpected output shape %v", dims)
	}
	attrs, anchors := dims[len(dims)-2], dims[len(dims)-1]
	if attrs < 5 || anchors <= 0 {
		return nil, fmt.Errorf("unexpected output shape %v", dims)
	}

	var primary, fallback tensorReader

	if data, err := output.DataPtrFloat32(); err == nil {
		primary = flatReader{data: data, anchors: anchors}
	} else {
		log.Debug("contiguous tensor read unavailable", "error", err)
	}

	view := output.Reshape(1, attrs)
	defer view.Close()
	if !view.Empty() {
		fallback = matReader{m: view}
	}

	if primary == nil && fallback == nil {
		return nil, fmt.Errorf("output tensor %v is unreadable", dims)
	}

	cands := decodeCandidates(primary, fallback, candidateParams{
		attrs:     attrs,
		anchors:   anchors,
		scaleX:    float64(frameW) / float64(d.config.InputSize),
		scaleY:    float64(frameH) / float64(d.config.InputSize),
		frameW:    float64(frameW),
		frameH:    float64(frameH),
		threshold: d.config.ConfidenceThresh,
	})
	if len(cands) == 0 {
		return nil, nil
	}

	kept := suppressPerClass(cands, d.config.ConfidenceThresh, d.config.NMSThresh)

	dets := make([]Detection, 0, len(kept))
	for _, c := range kept {
		dets = append(dets, Detection{
			Label:      ClassName(c.classID),
			ClassID:    c.classID,
			Confidence: float64(c.score),
			Box:        c.box,
		})
	}
	return dets, nil
}

// suppressPerClass runs non-maximum suppression separately for each class, so
// a phone held in front of a person survives the overlap with that person.
// Survivors come back ordered by score, highest first.
func suppressPerClass(cands []candidate, scoreThresh, nmsThresh float32) []candidate {
	byClass := make(map[int][]int)
	for i, c := range cands {
		byClass[c.classID] = append(byClass[c.classID], i)
	}

	var kept []candidate
	for _, members := range byClass {
		rects := make([]image.Rectangle, len(members))
		scores := make([]float32, len(members))
		for j, i := range members {
			b := cands[i].box
			rects[j] = image.Rect(int(b.X1), int(b.Y1), int(b.X2), int(b.Y2))
			scores[j] = cands[i].score
		}
		for _, j := range gocv.NMSBoxes(rects, scores, scoreThresh, nmsThresh) {
			kept = append(kept, cands[members[j]])
		}
	}

	sort.SliceStable(kept, func(a, b int) bool {
		if kept[a].score != kept[b].score {
			return kept[a].score > kept[b].score
		}
		return kept[a].classID < kept[b].classID
	})
	return kept
}

// Close releases the detector resources
func (d *YOLODetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.net.Close()
}

// tensorReader reads one value of a 2-D [attrs, anchors] view of the output.
type tensorReader interface {
	at(attr, anchor int) (float32, bool)
}

// flatReader indexes the contiguous float32 buffer.
type flatReader struct {
	data    []float32
	anchors int
}

func (r flatReader) at(attr, anchor int) (float32, bool) {
	i := attr*r.anchors + anchor
	if attr < 0 || anchor < 0 || anchor >= r.anchors || i >= len(r.data) {
		return 0, false
	}
	return r.data[i], true
}

// matReader reads element-wise from a reshaped 2-D Mat.
type matReader struct {
	m gocv.Mat
}

func (r matReader) at(attr, anchor int) (float32, bool) {
	if attr < 0 || anchor < 0 || attr >= r.m.Rows() || anchor >= r.m.Cols() {
		return 0, false
	}
	return r.m.GetFloatAt(attr, anchor), true
}

type candidateParams struct {
	attrs, anchors int
	scaleX, scaleY float64
	frameW, frameH float64
	threshold      float32
}

type candidate struct {
	box     Box
	score   float32
	classID int
}

// decodeCandidates turns every anchor above threshold into a candidate box in
// frame coordinates. Each anchor is read through primary first, then through
// fallback. Anchors neither reader can decode, or whose box is degenerate
// after clamping to the frame, are skipped.
func decodeCandidates(primary, fallback tensorReader, p candidateParams) []candidate {
	var out []candidate
	for i := 0; i < p.anchors; i++ {
		c, ok := readCandidate(primary, i, p)
		if !ok {
			c, ok = readCandidate(fallback, i, p)
		}
		if !ok {
			log.Debug("skipping unreadable candidate", "anchor", i)
			continue
		}
		if c.score < p.threshold {
			continue
		}
		if !c.box.Valid() {
			log.Debug("skipping degenerate box", "anchor", i, "class", ClassName(c.classID))
			continue
		}
		out = append(out, c)
	}
	return out
}

func readCandidate(r tensorReader, anchor int, p candidateParams) (candidate, bool) {
	if r == nil {
		return candidate{}, false
	}

	var vals [4]float64
	for a := 0; a < 4; a++ {
		v, ok := r.at(a, anchor)
		if !ok || !finite(v) {
			return candidate{}, false
		}
		vals[a] = float64(v)
	}

	best, bestID := float32(-1), -1
	for a := 4; a < p.attrs; a++ {
		v, ok := r.at(a, anchor)
		if !ok || !finite(v) {
			return candidate{}, false
		}
		if v > best {
			best, bestID = v, a-4
		}
	}

	cx, cy, w, h := vals[0], vals[1], vals[2], vals[3]
	box := Box{
		X1: clamp((cx-w/2)*p.scaleX, 0, p.frameW),
		Y1: clamp((cy-h/2)*p.scaleY, 0, p.frameH),
		X2: clamp((cx+w/2)*p.scaleX, 0, p.frameW),
		Y2: clamp((cy+h/2)*p.scaleY, 0, p.frameH),
	}
	return candidate{box: box, score: best, classID: bestID}, true
}

func finite(v float32) bool {
	f := float64(v)
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(v, hi))
}

// ClassName returns the COCO name for id, or id in decimal when unknown.
func ClassName(id int) string {
	if id >= 0 && id < len(COCOClasses) {
		return COCOClasses[id]
	}
	return strconv.Itoa(id)
}

// COCOClasses contains the 80 COCO class names
var COCOClasses = []string{
	"person", "bicycle", "car", "motorcycle", "airplane", "bus", "train", "truck", "boat",
	"traffic light", "fire hydrant", "stop sign", "parking meter", "bench", "bird", "cat",
	"dog", "horse", "sheep", "cow", "elephant", "bear", "zebra", "giraffe", "backpack",
	"umbrella", "handbag", "tie", "suitcase", "frisbee", "skis", "snowboard", "sports ball",
	"kite", "baseball bat", "baseball glove", "skateboard", "surfboard", "tennis racket",
	"bottle", "wine glass", "cup", "fork", "knife", "spoon", "bowl", "banana", "apple",
	"sandwich", "orange", "broccoli", "carrot", "hot dog", "pizza", "donut", "cake", "chair",
	"couch", "potted plant", "bed", "dining table", "toilet", "tv", "laptop", "mouse",
	"remote", "keyboard", "cell phone", "microwave", "oven", "toaster", "sink", "refrigerator",
	"book", "clock", "vase", "scissors", "teddy bear", "hair drier", "toothbrush",
}
