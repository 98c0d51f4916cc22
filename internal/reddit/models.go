package reddit

import "encoding/json"

// Thing prefixes used in fullnames.
const (
	PrefixComment = "t1_"
	PrefixPost    = "t3_"
)

type thing struct {
	Kind string          `json:"kind"`
	Data json.RawMessage `json:"data"`
}

type listing struct {
	Kind string `json:"kind"`
	Data struct {
		Children []thing `json:"children"`
	} `json:"data"`
}

type commentData struct {
	Name           string `json:"name"`
	Author         string `json:"author"`
	AuthorFullname string `json:"author_fullname"`
	Permalink      string `json:"permalink"`
	Stickied       bool   `json:"stickied"`
}

type postData struct {
	Name        string  `json:"name"`
	Permalink   string  `json:"permalink"`
	NumComments int     `json:"num_comments"`
	CreatedUTC  float64 `json:"created_utc"`
	Locked      bool    `json:"locked"`
}

type apiResponse struct {
	JSON struct {
		Errors [][]any `json:"errors"`
		Data   struct {
			Things []thing `json:"things"`
		} `json:"data"`
	} `json:"json"`
}
