package handlers

import "os"

// ServeDelete implements §4.4's DELETE handler: remove the resolved
// file, 204 on success, 404 if it was already absent.
func ServeDelete(resolvedPath string) Outcome {
	if err := os.Remove(resolvedPath); err != nil {
		if os.IsNotExist(err) {
			return Outcome{Status: 404}
		}
		return Outcome{Status: 500}
	}
	return Outcome{Status: 204}
}
