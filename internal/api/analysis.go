package api

import (
	"context"
	"net/http"
)

// Ask sends a question to the analysis service and returns its answer.
func (c *Client) Ask(ctx context.Context, question string) (string, error) {
	var resp askResponse
	err := c.do(ctx, call{
		method: http.MethodPost,
		base:   c.analysisURL,
		path:   "/api/analysis/ask",
		body:   askRequest{Question: question},
		auth:   authOptional,
	}, &resp)
	return resp.Answer, err
}
