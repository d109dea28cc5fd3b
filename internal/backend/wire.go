package backend

import (
	"math"

	"github.com/JaimeStill/sealcheck/internal/workflow"
)

type errorResponse struct {
	Error string `json:"error"`
}

type uploadResponse struct {
	Message  string `json:"message"`
	Filename string `json:"filename"`
	Filepath string `json:"filepath"`
}

type detectRequest struct {
	Filepath string `json:"filepath"`
}

type detectResponse struct {
	Seals []seal `json:"seals"`
	Count int    `json:"count"`
}

// seal coordinates arrive as JSON numbers that may carry a fraction.
type seal struct {
	ID       int     `json:"id"`
	Diameter float64 `json:"diameter"`
	ImageURL string  `json:"image_url"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Radius   float64 `json:"radius"`
	Page     *int    `json:"page,omitempty"`
}

func (s seal) candidate() workflow.SealCandidate {
	return workflow.SealCandidate{
		ID:       s.ID,
		Diameter: s.Diameter,
		X:        int(math.Round(s.X)),
		Y:        int(math.Round(s.Y)),
		Radius:   int(math.Round(s.Radius)),
		Page:     s.Page,
		ImageURL: s.ImageURL,
	}
}

type compareRequest struct {
	SealPath     string `json:"seal_path"`
	TemplateName string `json:"template_name"`
}

type compareResponse struct {
	Result   string `json:"result"`
	Seal     string `json:"seal"`
	Template string `json:"template"`
}

type templatesResponse struct {
	Templates []string `json:"templates"`
}

type uploadTemplateResponse struct {
	Message  string `json:"message"`
	Filename string `json:"filename"`
}
