package gitlab

import (
	"errors"
	"fmt"
	"net/http"

	gl "gitlab.com/gitlab-org/api/client-go"

	"github.com/slok/glmcp/internal/model"
)

// apiError categorizes a GitLab API error by its HTTP status.
func apiError(err error, resp *gl.Response, what string) error {
	status := 0
	var errResp *gl.ErrorResponse
	if errors.As(err, &errResp) && errResp.Response != nil {
		status = errResp.Response.StatusCode
	} else if resp != nil && resp.Response != nil {
		status = resp.StatusCode
	}

	switch {
	case status == http.StatusUnauthorized:
		return model.Auth("%s: %w", what, err)
	case status == http.StatusForbidden:
		return model.Permission("%s: %w", what, err)
	case status == http.StatusNotFound:
		return model.NotFound("%s: %w", what, err)
	case status == http.StatusBadRequest, status == http.StatusConflict, status == http.StatusUnprocessableEntity:
		return model.Validation("%s: %w", what, err)
	case status == http.StatusTooManyRequests:
		return model.RateLimited("%s: %w", what, err)
	case status >= http.StatusInternalServerError:
		return model.UpstreamUnavailable("%s: %w", what, err)
	}

	// Transport errors are classified by the dispatcher.
	return fmt.Errorf("%s: %w", what, err)
}
