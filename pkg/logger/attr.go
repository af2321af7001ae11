package logger

import "log/slog"

// Error records err under "error". A nil error yields an empty attribute.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// UserID records an identity id under "user_id".
func UserID(id any) slog.Attr {
	if id == nil {
		return slog.Attr{}
	}
	return slog.Any("user_id", id)
}

// RequestID records a request id under "request_id".
func RequestID(id string) slog.Attr {
	if id == "" {
		return slog.Attr{}
	}
	return slog.String("request_id", id)
}

// Component records the emitting component under "component".
func Component(name string) slog.Attr {
	return slog.String("component", name)
}

// Provider records an OAuth provider id under "provider".
func Provider(id string) slog.Attr {
	return slog.String("provider", id)
}

// Duration records d under "duration".
func Duration(d any) slog.Attr {
	return slog.Any("duration", d)
}
