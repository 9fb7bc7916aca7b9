package grant

import "github.com/pixil98/go-tacklebox/internal/persist"

type ServerOpt func(*Server)

// WithValidators adds domain checks run, in order, before a grant commits.
func WithValidators(v ...Validator) ServerOpt {
	return func(s *Server) {
		s.validators = append(s.validators, v...)
	}
}

// WithLoader restores an owner's inventory the first time they are seen.
func WithLoader(l persist.Loader) ServerOpt {
	return func(s *Server) {
		s.loader = l
	}
}

func WithRecorder(r Recorder) ServerOpt {
	return func(s *Server) {
		s.recorder = r
	}
}

func WithPusher(p Pusher) ServerOpt {
	return func(s *Server) {
		s.pusher = p
	}
}

// WithMaxAmount caps the amount a single request may ask for.
func WithMaxAmount(n int) ServerOpt {
	return func(s *Server) {
		if n > 0 {
			s.maxAmount = n
		}
	}
}
