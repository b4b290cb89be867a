package request_models

type ImportKeysRequest struct {
	Keys []string `json:"keys" binding:"required,min=1,dive,min=1"`
}

type RevokeKeyRequest struct {
	Reason string `json:"reason" binding:"required"`
}
