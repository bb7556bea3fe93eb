package mergeservice

import (
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"
)

// ErrorStatusCode is the envelope status code the merge service uses for failed merges.
const ErrorStatusCode = 500

// Response is the XML envelope returned by the merge service:
//
//	<MergeResponse><Status><Code/><Description/></Status><Result><Value/></Result></MergeResponse>
type Response struct {
	XMLName xml.Name `xml:"MergeResponse"`
	Status  Status   `xml:"Status"`
	Result  Result   `xml:"Result"`
}

type Status struct {
	Code        string `xml:"Code"`
	Description string `xml:"Description"`
}

type Result struct {
	Value string `xml:"Value"`
}

func ParseResponse(body []byte) (*Response, error) {
	if len(strings.TrimSpace(string(body))) == 0 {
		return nil, fmt.Errorf("empty response body")
	}

	var response Response
	if err := xml.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("failed to parse XML: %w", err)
	}
	return &response, nil
}

func (r *Response) StatusCode() (int, error) {
	code, err := strconv.Atoi(strings.TrimSpace(r.Status.Code))
	if err != nil {
		return 0, fmt.Errorf("invalid status code '%s'", r.Status.Code)
	}
	return code, nil
}

// ResultValue returns the result of a successful merge, or an error carrying the
// provider's description.
func (r *Response) ResultValue() (string, error) {
	code, err := r.StatusCode()
	if err != nil {
		return "", err
	}

	if code == ErrorStatusCode || !isSuccessStatus(code) {
		return "", fmt.Errorf("status %d: %s", code, strings.TrimSpace(r.Status.Description))
	}

	if strings.TrimSpace(r.Result.Value) == "" {
		return "", fmt.Errorf("status %d with empty result", code)
	}
	return r.Result.Value, nil
}
