package middleware

import "time"

const testTimeout = 2 * time.Second
