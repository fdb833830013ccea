package jwtware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

type tokenExtractor func(*fiber.Ctx) (string, error)

// extractors compiles the TokenLookup spec into an ordered extractor list.
// Unknown sources are skipped, an empty result falls back to the default
// Authorization header lookup.
func (cfg Config) extractors() []tokenExtractor {
	var out []tokenExtractor

	for _, entry := range strings.Split(cfg.TokenLookup, ",") {
		parts := strings.SplitN(strings.TrimSpace(entry), ":", 2)
		if len(parts) != 2 {
			continue
		}
		name := parts[1]
		switch parts[0] {
		case "header":
			out = append(out, fromHeader(name, cfg.AuthScheme))
		case "query":
			out = append(out, fromQuery(name))
		case "cookie":
			out = append(out, fromCookie(name))
		case "param":
			out = append(out, fromParam(name))
		}
	}

	if len(out) == 0 {
		out = append(out, fromHeader(fiber.HeaderAuthorization, cfg.AuthScheme))
	}

	return out
}

// extractRawToken tries each extractor in order and returns the first token
// found. All sources empty means the request carries no credential at all.
func extractRawToken(c *fiber.Ctx, extractors []tokenExtractor) (string, error) {
	for _, extract := range extractors {
		token, err := extract(c)
		if err != nil {
			return "", err
		}
		if token != "" {
			return token, nil
		}
	}
	return "", ErrMissingToken
}

// fromHeader strips the auth scheme prefix. A header present with the wrong
// scheme or an empty credential is malformed, not merely absent.
func fromHeader(header, authScheme string) tokenExtractor {
	return func(c *fiber.Ctx) (string, error) {
		value := c.Get(header)
		if value == "" {
			return "", nil
		}

		if authScheme == "" {
			return value, nil
		}

		prefix := authScheme + " "
		if len(value) <= len(prefix) || !strings.EqualFold(value[:len(prefix)], prefix) {
			return "", ErrMissingToken
		}

		return strings.TrimSpace(value[len(prefix):]), nil
	}
}

func fromQuery(param string) tokenExtractor {
	return func(c *fiber.Ctx) (string, error) {
		return c.Query(param), nil
	}
}

func fromCookie(name string) tokenExtractor {
	return func(c *fiber.Ctx) (string, error) {
		return c.Cookies(name), nil
	}
}

func fromParam(param string) tokenExtractor {
	return func(c *fiber.Ctx) (string, error) {
		return c.Params(param), nil
	}
}
