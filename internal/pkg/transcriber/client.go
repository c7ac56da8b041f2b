package transcriber

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"

	"bitbucket.org/airenas/callsight/internal/pkg/cmdapp"
	"bitbucket.org/airenas/callsight/internal/pkg/utils"
	"github.com/pkg/errors"

	"github.com/hashicorp/go-retryablehttp"
)

//Segment is one recognized piece of speech with its timing
type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

//Result is the speech service response
type Result struct {
	Text     string    `json:"text"`
	Language string    `json:"language"`
	Duration float64   `json:"duration"`
	Segments []Segment `json:"segments"`
}

//Options selects how audio is recognized
type Options struct {
	Language  string // hint, empty means autodetect
	Translate bool   // produce English text from foreign speech
	Detailed  bool   // request timed segments
}

//Client comunicates with the speech service
type Client struct {
	httpclient    *retryablehttp.Client
	transcribeURL string
	translateURL  string
	key           string
	model         string
}

//NewClient creates a speech service client
func NewClient() (*Client, error) {
	res := Client{}
	var err error
	res.transcribeURL, err = utils.GetURLFromConfig("transcriber.url.transcribe")
	if err != nil {
		return nil, err
	}
	res.translateURL, err = utils.GetURLFromConfig("transcriber.url.translate")
	if err != nil {
		return nil, err
	}
	res.key = cmdapp.Config.GetString("transcriber.key")
	res.model = cmdapp.Config.GetString("transcriber.model")
	if res.model == "" {
		res.model = "whisper-1"
	}
	res.httpclient = retryablehttp.NewClient()
	res.httpclient.RetryMax = 3
	res.httpclient.Logger = nil

	return &res, nil
}

//Recognize sends audio to the speech service
func (sp *Client) Recognize(fileName string, file io.Reader, opts Options) (*Result, error) {
	if sp.key == "" {
		return nil, ErrNoAPIKey
	}
	urlStr := sp.transcribeURL
	if opts.Translate {
		urlStr = sp.translateURL
	}
	cmdapp.Log.Infof("Sending audio to: %s", utils.URLToLog(urlStr))

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", fileName)
	if err != nil {
		return nil, errors.Wrap(err, "Can't add file to request")
	}
	_, err = io.Copy(part, file)
	if err != nil {
		return nil, errors.Wrap(err, "Can't add file to request")
	}
	writer.WriteField("model", sp.model)
	if opts.Language != "" && !opts.Translate {
		writer.WriteField("language", opts.Language)
	}
	if opts.Detailed {
		writer.WriteField("response_format", "verbose_json")
	} else {
		writer.WriteField("response_format", "json")
	}
	writer.Close()

	req, err := retryablehttp.NewRequest("POST", urlStr, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+sp.key)

	resp, err := sp.httpclient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, ErrRateLimited
	}
	err = utils.ValidateResponse(resp)
	if err != nil {
		return nil, errors.Wrap(err, "Can't recognize audio")
	}
	var result Result
	err = json.NewDecoder(resp.Body).Decode(&result)
	if err != nil {
		return nil, errors.Wrap(err, "Can't decode response")
	}
	return &result, nil
}
