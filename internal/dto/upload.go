package dto

type UploadResponse struct {
	Message  string `json:"message"`
	FileURL  string `json:"fileUrl"`
	Filename string `json:"filename"`
	Type     string `json:"type"`
	Size     int64  `json:"size"`
}
