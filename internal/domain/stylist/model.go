package stylist

// Request represents the incoming style advice payload.
type Request struct {
	City   string `json:"city"`
	Season string `json:"season"`
}

// OutfitRequest asks for a single on-demand outfit image.
type OutfitRequest struct {
	City        string `json:"city"`
	Season      string `json:"season"`
	Description string `json:"description,omitempty"`
}

// OutfitImage is one generated outfit slot in the final result.
type OutfitImage struct {
	URL    string `json:"url"`
	Prompt string `json:"prompt"`
}

// StyleResult is the final aggregate returned or streamed to the client.
type StyleResult struct {
	Success      bool          `json:"success"`
	City         string        `json:"city"`
	Season       string        `json:"season"`
	Advice       string        `json:"advice"`
	OutfitImages []OutfitImage `json:"outfitImages"`
	Provider     string        `json:"provider"`
}

// OutfitResult is returned by the single-image endpoint.
type OutfitResult struct {
	Success  bool   `json:"success"`
	ImageURL string `json:"imageUrl"`
	Prompt   string `json:"prompt"`
}

// Progress event statuses. The set is closed: clients switch exhaustively
// on Status and treat keepalive frames as discardable.
const (
	StatusStarting        = "starting"
	StatusSearching       = "searching"
	StatusProcessing      = "processing"
	StatusAdviceComplete  = "advice_complete"
	StatusGeneratingImage = "generating_image"
	StatusImageComplete   = "image_complete"
	StatusImageFailed     = "image_failed"
	StatusImagesError     = "images_error"
	StatusComplete        = "complete"
	StatusError           = "error"
	StatusKeepalive       = "keepalive"
)

// ProgressEvent is one frame of the streaming protocol. Which fields are
// populated depends on Status; advice_complete always precedes any image
// event and complete is the last substantive frame of a run.
type ProgressEvent struct {
	Status      string       `json:"status"`
	Message     string       `json:"message,omitempty"`
	Advice      string       `json:"advice,omitempty"`
	TimeTakenMs int64        `json:"timeTaken,omitempty"`
	ImageIndex  *int         `json:"imageIndex,omitempty"`
	ImageURL    string       `json:"imageUrl,omitempty"`
	Error       string       `json:"error,omitempty"`
	Result      *StyleResult `json:"result,omitempty"`
}

func indexOf(i int) *int {
	return &i
}
