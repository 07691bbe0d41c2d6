package restyutil

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-resty/resty/v2"
)

func writeHeaders(out *strings.Builder, headers http.Header) {
	for k, vals := range headers {
		for _, v := range vals {
			fmt.Fprintf(out, "%s: %s\n", k, v)
		}
	}
}

func requestBody(req *http.Request) string {
	if req == nil || req.GetBody == nil {
		return ""
	}
	body, err := req.GetBody()
	if err != nil {
		return fmt.Sprintf("<failed to get request body: %s>", err)
	}
	contents, err := io.ReadAll(body)
	if err != nil {
		return fmt.Sprintf("<failed to read request body: %s>", err)
	}
	return string(contents)
}

// renders a request/response pair into a plain-text dump, roughly in
// wire format
func formatHttpMessage(res *resty.Response) string {
	var out strings.Builder

	fmt.Fprintf(&out, "%s %s\n", res.Request.Method, res.Request.URL)
	if res.Request.RawRequest != nil {
		writeHeaders(&out, res.Request.RawRequest.Header)
		body := requestBody(res.Request.RawRequest)
		if body != "" {
			fmt.Fprintf(&out, "\n%s\n", body)
		}
	}

	out.WriteString("\n")

	finalUrl := res.Request.URL
	if redirected, err := res.RawResponse.Location(); err == nil {
		finalUrl = redirected.String()
	}
	fmt.Fprintf(&out, "%s %s\n", res.Status(), finalUrl)
	writeHeaders(&out, res.Header())
	fmt.Fprintf(&out, "\n%s\n", res.String())

	return out.String()
}
