package apiclient

import "fmt"

// getResource performs a GET request and decodes the body into T.
func getResource[T any](c *Client, path string) (*T, error) {
	var result T
	if err := c.get(path, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// listResources performs a GET request and decodes the body into []T.
func listResources[T any](c *Client, path string) ([]T, error) {
	var results []T
	if err := c.get(path, &results); err != nil {
		return nil, err
	}
	return results, nil
}

// resourcePath builds a path from a format string.
func resourcePath(format string, args ...any) string {
	return fmt.Sprintf(format, args...)
}
