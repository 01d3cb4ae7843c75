package vision

import (
	"fmt"
	"image"

	ort "github.com/yalue/onnxruntime_go"
)

// Attribute net input geometry and normalization, shared by the gender
// and age models.
const attrInput = 227

var attrMean = [3]float32{78.4263377603, 87.7689143744, 114.895847746}

var genderLabels = []string{"Male", "Female"}

var ageBuckets = []string{
	"(0-2)", "(3-6)", "(7-12)", "(13-19)", "(20-29)",
	"(30-39)", "(40-49)", "(50-59)", "(60-74)", "(75-100)",
}

// attrUnknown is returned for crops the nets cannot score.
const attrUnknown = "Unknown"

// Predictor classifies a face crop into a gender label and an age bucket
// using two softmax ONNX models. Stateless per call; predictions may be
// wrong or noisy — smoothing is the engine's job.
type Predictor struct {
	gender *attrNet
	age    *attrNet
}

type attrNet struct {
	session      *ort.AdvancedSession
	inputTensor  *ort.Tensor[float32]
	outputTensor *ort.Tensor[float32]
	labels       []string
}

// NewPredictor loads both attribute models. Fails fast and loudly on a
// missing model.
func NewPredictor(genderModelPath, ageModelPath string) (*Predictor, error) {
	gender, err := newAttrNet(genderModelPath, genderLabels)
	if err != nil {
		return nil, fmt.Errorf("load gender model: %w", err)
	}
	age, err := newAttrNet(ageModelPath, ageBuckets)
	if err != nil {
		gender.close()
		return nil, fmt.Errorf("load age model: %w", err)
	}
	return &Predictor{gender: gender, age: age}, nil
}

func newAttrNet(modelPath string, labels []string) (*attrNet, error) {
	inputShape := ort.NewShape(1, 3, attrInput, attrInput)
	inputTensor, err := ort.NewEmptyTensor[float32](inputShape)
	if err != nil {
		return nil, fmt.Errorf("create input tensor: %w", err)
	}

	outputShape := ort.NewShape(1, int64(len(labels)))
	outputTensor, err := ort.NewEmptyTensor[float32](outputShape)
	if err != nil {
		inputTensor.Destroy()
		return nil, fmt.Errorf("create output tensor: %w", err)
	}

	session, err := ort.NewAdvancedSession(modelPath,
		[]string{"data"},
		[]string{"prob"},
		[]ort.Value{inputTensor},
		[]ort.Value{outputTensor},
		nil,
	)
	if err != nil {
		inputTensor.Destroy()
		outputTensor.Destroy()
		return nil, fmt.Errorf("create session: %w", err)
	}

	return &attrNet{
		session:      session,
		inputTensor:  inputTensor,
		outputTensor: outputTensor,
		labels:       labels,
	}, nil
}

// Predict returns (gender, age-bucket) for a face crop, or the sentinel
// ("Unknown", "Unknown") for a nil or zero-area crop. It never fails the
// frame: inference errors also degrade to the sentinel pair.
func (p *Predictor) Predict(face image.Image) (string, string) {
	if face == nil {
		return attrUnknown, attrUnknown
	}
	b := face.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return attrUnknown, attrUnknown
	}

	input := toCHW(face, attrInput, attrInput, attrMean, [3]float32{1, 1, 1})

	gender := p.gender.classify(input)
	age := p.age.classify(input)
	return gender, age
}

func (n *attrNet) classify(input []float32) string {
	copy(n.inputTensor.GetData(), input)
	if err := n.session.Run(); err != nil {
		return attrUnknown
	}

	probs := n.outputTensor.GetData()
	best := 0
	for i := 1; i < len(probs) && i < len(n.labels); i++ {
		if probs[i] > probs[best] {
			best = i
		}
	}
	return n.labels[best]
}

func (n *attrNet) close() {
	if n.session != nil {
		n.session.Destroy()
	}
	if n.inputTensor != nil {
		n.inputTensor.Destroy()
	}
	if n.outputTensor != nil {
		n.outputTensor.Destroy()
	}
}

func (p *Predictor) Close() {
	if p.gender != nil {
		p.gender.close()
	}
	if p.age != nil {
		p.age.close()
	}
}
