package transfer

// GraphError is the error envelope returned by the Facebook Graph API.
type GraphError struct {
	Message      string `json:"message"`
	Type         string `json:"type"`
	Code         int    `json:"code"`
	ErrorSubcode int    `json:"error_subcode"`
	IsTransient  bool   `json:"is_transient"`
	ErrorUserMsg string `json:"error_user_msg"`
	FbtraceID    string `json:"fbtrace_id"`
}

// GraphResponse is the generic Graph API reply for container creation and
// publishing. ID is empty when Error is set.
type GraphResponse struct {
	ID    string      `json:"id"`
	Error *GraphError `json:"error,omitempty"`
}

// ContainerStatusResponse is the reply of GET /{container_id}?fields=status_code.
type ContainerStatusResponse struct {
	ID         string      `json:"id"`
	StatusCode string      `json:"status_code"` // IN_PROGRESS, FINISHED, ERROR
	Error      *GraphError `json:"error,omitempty"`
}

type InstagramToken struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

// PublishResult is the success/error contract returned to the dashboard.
type PublishResult struct {
	Success bool   `json:"success"`
	PostID  string `json:"post_id,omitempty"`
	Error   string `json:"error,omitempty"`
}

// PublishRequest is the body of POST /api/publish. Either AssetID (a stored
// upload) or MediaURL (an already public URL) must be set.
type PublishRequest struct {
	AssetID   string `json:"asset_id"`
	MediaURL  string `json:"media_url"`
	Caption   string `json:"caption"`
	MediaKind string `json:"media_kind"`
}
