// Package mailer defines the notification collaborator contract the identity
// core dispatches to. Only the contract is owned here; real transports live
// with the deployment.
package mailer

import (
	"context"
	"fmt"
)

// Mailer delivers a single HTML notification. Implementations report
// delivery failures through the returned error; callers decide whether the
// failure is fatal to the operation that triggered it.
type Mailer interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

// SendFunc adapts a function into a Mailer.
type SendFunc func(ctx context.Context, to, subject, htmlBody string) error

// Send implements Mailer.
func (f SendFunc) Send(ctx context.Context, to, subject, htmlBody string) error {
	if f == nil {
		return nil
	}
	return f(ctx, to, subject, htmlBody)
}

// Dev prints deliveries to stdout instead of sending them. It stands in for
// the real transport during local development.
type Dev struct{}

// Send implements Mailer.
func (Dev) Send(_ context.Context, to, subject, htmlBody string) error {
	fmt.Println("====== SENDING EMAIL NOTIFICATION =======")
	fmt.Printf("to: %s\n", to)
	fmt.Printf("subject: %s\n", subject)
	fmt.Println(htmlBody)
	return nil
}

var _ Mailer = Dev{}
