package server

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/tidwall/gjson"

	"sumcache/internal/core"
)

// parseSumRequest extracts the numbers list from a POST /sum body.
// Every element must be a JSON integer literal that fits in an int64; booleans, strings,
// fractions and exponents are rejected rather than coerced. The numbers key must not repeat.
func parseSumRequest(body []byte) ([]int64, error) {
	if !gjson.ValidBytes(body) {
		return nil, core.NewInvalidRequestError("request body must be valid JSON", nil)
	}

	root := gjson.ParseBytes(body)
	if !root.IsObject() {
		return nil, core.NewInvalidRequestError("request body must be a JSON object", nil)
	}

	// JSON decoders disagree on which duplicate key wins, so a repeated key is ambiguous.
	var field gjson.Result
	seen := 0
	root.ForEach(func(key, value gjson.Result) bool {
		if key.String() == "numbers" {
			field = value
			seen++
		}
		return true
	})
	switch {
	case seen == 0:
		return nil, core.NewInvalidRequestError("numbers is required", nil)
	case seen > 1:
		return nil, core.NewInvalidRequestError("numbers must appear only once", nil)
	}
	if !field.IsArray() {
		return nil, core.NewInvalidRequestError("numbers must be a list of integers", nil)
	}

	elems := field.Array()
	numbers := make([]int64, 0, len(elems))
	for i, el := range elems {
		n, err := parseInteger(el)
		if err != nil {
			return nil, core.NewInvalidRequestError(fmt.Sprintf("numbers[%d]: %s", i, err), err)
		}
		numbers = append(numbers, n)
	}
	return numbers, nil
}

var (
	errNotInteger = errors.New("must be an integer")
	errOutOfRange = errors.New("outside the supported signed 64-bit range")
)

func parseInteger(el gjson.Result) (int64, error) {
	if el.Type != gjson.Number {
		return 0, errNotInteger
	}
	n, err := strconv.ParseInt(el.Raw, 10, 64)
	if err == nil {
		return n, nil
	}
	if errors.Is(err, strconv.ErrRange) {
		return 0, errOutOfRange
	}
	return 0, errNotInteger
}
