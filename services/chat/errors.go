// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package chat

import (
	"errors"
	"fmt"

	"github.com/AleutianAI/InstratChat/services/llm"
)

// ErrModelUnavailable is wrapped by ModelError when no Generator could be
// built for the request.
var ErrModelUnavailable = errors.New("language model unavailable")

// ModelError reports a failed assisted-mode generation.
//
// Description:
//
//	The request fails as a whole; there is no fallback to the plain reply.
//	Detail is the underlying error text with the caller's credential and
//	any recognisable secrets removed, safe to return to the caller.
type ModelError struct {
	Detail string
	Err    error
}

func newModelError(err error, credential string) *ModelError {
	return &ModelError{
		Detail: llm.RedactCredential(err.Error(), credential),
		Err:    err,
	}
}

func (e *ModelError) Error() string {
	return fmt.Sprintf("chat: external model failure: %s", e.Detail)
}

func (e *ModelError) Unwrap() error { return e.Err }
