// Package vision wraps the ONNX models at the system boundary: the SSD
// face detector and the gender/age attribute nets. Everything here is
// stateless per call; tracking and identity live in the engine.
package vision

import (
	"fmt"
	"image"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/your-org/facecat/internal/models"
)

// SSD face detector input geometry and maximum proposal count.
const (
	detInputW    = 300
	detInputH    = 300
	maxProposals = 200
)

// detMean is the BGR channel mean the SSD face model was trained with.
var detMean = [3]float32{104, 117, 123}

// Detector runs single-shot face detection using ONNX Runtime.
type Detector struct {
	session      *ort.AdvancedSession
	inputTensor  *ort.Tensor[float32]
	outputTensor *ort.Tensor[float32]
	threshold    float32
}

// NewDetector loads the face detection model. Fails fast if the model
// file is missing or malformed; there is no lazy initialization.
func NewDetector(modelPath string, threshold float32) (*Detector, error) {
	inputShape := ort.NewShape(1, 3, detInputH, detInputW)
	inputTensor, err := ort.NewEmptyTensor[float32](inputShape)
	if err != nil {
		return nil, fmt.Errorf("create input tensor: %w", err)
	}

	// SSD output: [1, 1, N, 7] rows of
	// (image_id, class_id, confidence, x1, y1, x2, y2), coords normalized.
	outputShape := ort.NewShape(1, 1, maxProposals, 7)
	outputTensor, err := ort.NewEmptyTensor[float32](outputShape)
	if err != nil {
		inputTensor.Destroy()
		return nil, fmt.Errorf("create output tensor: %w", err)
	}

	session, err := ort.NewAdvancedSession(modelPath,
		[]string{"data"},
		[]string{"detection_out"},
		[]ort.Value{inputTensor},
		[]ort.Value{outputTensor},
		nil,
	)
	if err != nil {
		inputTensor.Destroy()
		outputTensor.Destroy()
		return nil, fmt.Errorf("create detector session: %w", err)
	}

	return &Detector{
		session:      session,
		inputTensor:  inputTensor,
		outputTensor: outputTensor,
		threshold:    threshold,
	}, nil
}

// Detect finds faces in the frame and returns their boxes in pixel
// coordinates, clamped to the frame.
func (d *Detector) Detect(frame image.Image) ([]models.Detection, error) {
	bounds := frame.Bounds()
	frameW := bounds.Dx()
	frameH := bounds.Dy()

	input := toCHW(frame, detInputW, detInputH, detMean, [3]float32{1, 1, 1})
	copy(d.inputTensor.GetData(), input)

	if err := d.session.Run(); err != nil {
		return nil, fmt.Errorf("run detection: %w", err)
	}

	out := d.outputTensor.GetData()

	var detections []models.Detection
	for i := 0; i < maxProposals; i++ {
		row := out[i*7 : i*7+7]
		conf := row[2]
		if conf < d.threshold {
			continue
		}

		box := models.Box{
			X1: int(row[3] * float32(frameW)),
			Y1: int(row[4] * float32(frameH)),
			X2: int(row[5] * float32(frameW)),
			Y2: int(row[6] * float32(frameH)),
		}.Clamp(frameW, frameH)
		if box.Empty() {
			continue
		}

		detections = append(detections, models.Detection{
			Box:        box,
			Confidence: conf,
			Label:      "face",
		})
	}

	return detections, nil
}

func (d *Detector) Close() {
	if d.session != nil {
		d.session.Destroy()
	}
	if d.inputTensor != nil {
		d.inputTensor.Destroy()
	}
	if d.outputTensor != nil {
		d.outputTensor.Destroy()
	}
}
