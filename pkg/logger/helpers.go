package logger

// LogPageFetch logs the outcome of fetching one message page
func LogPageFetch(chatID string, page int, messages int, err error) {
	fields := map[string]interface{}{
		"chat_id":  chatID,
		"page":     page,
		"messages": messages,
	}
	if err != nil {
		GetLogger().WithFields(fields).WithError(err).Error("Page fetch failed")
		return
	}
	GetLogger().InfoWithFields("Page fetched", fields)
}

// LogImageDownload logs image download operations
func LogImageDownload(url, filename string, success bool, err error) {
	fields := map[string]interface{}{
		"url":      url,
		"filename": filename,
		"success":  success,
	}
	l := GetLogger().WithFields(fields)
	if err != nil {
		l.WithError(err).Error("Image download failed")
	} else if success {
		l.Debug("Image downloaded")
	} else {
		l.Debug("Image download skipped")
	}
}

// LogRateLimit logs rate limiting events
func LogRateLimit(endpoint string, retryAfter int) {
	GetLogger().WithFields(map[string]interface{}{
		"endpoint":    endpoint,
		"retry_after": retryAfter,
		"action":      "rate_limited",
	}).Warn("Rate limit reached, backing off")
}
