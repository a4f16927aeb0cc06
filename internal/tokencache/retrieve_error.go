package tokencache

import (
	"errors"

	"golang.org/x/oauth2"
)

// retrieveErrorInfo is the minimal shape we need out of *oauth2.RetrieveError
// to classify a token-endpoint failure as AuthenticationFailure.
type retrieveErrorInfo struct {
	statusCode int
	body       string
}

// asRetrieveError unwraps err looking for the *oauth2.RetrieveError the
// clientcredentials.Config.Token call returns on a non-2xx response from
// the token endpoint.
func asRetrieveError(err error) (retrieveErrorInfo, bool) {
	var rErr *oauth2.RetrieveError
	if errors.As(err, &rErr) {
		info := retrieveErrorInfo{body: string(rErr.Body)}
		if rErr.Response != nil {
			info.statusCode = rErr.Response.StatusCode
		}
		return info, true
	}
	return retrieveErrorInfo{}, false
}
