package transfer

type TwitterUserResponse struct {
	Data TwitterUserData `json:"data"`
}

type TwitterUserData struct {
	ID           string `json:"id"`
	Username     string `json:"username"`
	Verified     bool   `json:"verified"`
	VerifiedType string `json:"verified_type"` // none, blue, business
}

type TweetRequest struct {
	Text  string      `json:"text"`
	Media *TweetMedia `json:"media,omitempty"`
}

type TweetMedia struct {
	MediaIDs []string `json:"media_ids"`
}

type TweetResponse struct {
	Data TweetData `json:"data"`
}

type TweetData struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

type TweetDeleteResponse struct {
	Data struct {
		Deleted bool `json:"deleted"`
	} `json:"data"`
}

type MediaUploadResponse struct {
	MediaIDString string `json:"media_id_string"`
}

type TwitterStatus struct {
	Connected    bool   `json:"connected"`
	Username     string `json:"username,omitempty"`
	VerifiedType string `json:"verified_type,omitempty"`
	MaxPostChars int    `json:"max_post_chars,omitempty"`
}

type TwitterErrorResponse struct {
	Title  string `json:"title"`
	Detail string `json:"detail"`
	Status int    `json:"status"`
}
