package network

import (
	"github.com/gocolly/colly/v2"
)

// DecompressResponseBody undoes transport compression on a colly response
// according to its Content-Encoding header.
func DecompressResponseBody(resp *colly.Response) ([]byte, error) {
	encoding := ""
	if resp.Headers != nil {
		encoding = resp.Headers.Get("Content-Encoding")
	}

	return DecompressBody(encoding, resp.Body)
}

// DecodeResponseText resolves character encoding of a colly response body and
// returns normalized page text.
func DecodeResponseText(resp *colly.Response) string {
	contentType := ""
	if resp.Headers != nil {
		contentType = resp.Headers.Get("Content-Type")
	}

	return DecodeBody(resp.Body, contentType)
}

// RetryRequest reads `retryCnt` and `maxRetryCnt` from request context. If
// current retry count is less than max retry count, this function retries
// given request, else a `ErrMaxRetry` will be returned.
// This function returns retry count after operation, and error happened
// during operation.
func RetryRequest(req *colly.Request) (int, error) {
	ctx := req.Ctx

	maxRetryCnt, _ := ctx.GetAny("maxRetryCnt").(int)

	retryCnt, _ := ctx.GetAny("retryCnt").(int)
	if retryCnt >= maxRetryCnt {
		return retryCnt, ErrMaxRetry
	}

	retryCnt++
	ctx.Put("retryCnt", retryCnt)

	return retryCnt, req.Retry()
}
