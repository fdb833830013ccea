package mailer

import "fmt"

// Subjects used by the identity core and the stories glue.
const (
	SubjectEmailConfirmation = "Email Confirmation"
	SubjectStoryPublished    = "Your Story Has Been Published!"
	SubjectStoryRejected     = "Your Story Has Been Rejected"
)

// ConfirmationBody renders the confirmation email sent at registration. The
// link embeds the confirmation token; its validity matches the token TTL.
func ConfirmationBody(username, confirmationLink string) string {
	return fmt.Sprintf(`<p>Hi %s,</p>
<p>Please confirm your email by clicking the link below:</p>
<a href="%s">Confirm Email</a>
<p>This link will expire in 1 hour.</p>`, username, confirmationLink)
}

// StoryPublishedBody notifies an author their story went live.
func StoryPublishedBody(username, title string) string {
	return fmt.Sprintf(`<p>Hi %s,</p>
<p>Congratulations! Your story titled <strong>%q</strong> has been published.</p>
<p>Thank you for sharing your story with us.</p>`, username, title)
}

// StoryRejectedBody notifies an author their story was rejected.
func StoryRejectedBody(username, title string) string {
	return fmt.Sprintf(`<p>Hi %s,</p>
<p>We're sorry to inform you that your story titled <strong>%q</strong> has been rejected.</p>
<p>Feel free to contact support for more information.</p>`, username, title)
}

// MessageBody wraps a free-form administrative message.
func MessageBody(username, message string) string {
	return fmt.Sprintf(`<p>Hi %s,</p>
<p>%s</p>`, username, message)
}
