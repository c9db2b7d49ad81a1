package usecase

import (
	"fmt"
	"html"
	"strings"

	"contact-server/internal/contact"
)

func notificationSubject(data contact.Payload) string {
	return fmt.Sprintf("New contact request from %s", data.Name)
}

// notificationHTML renders the internal notification email with inline styles
// for maximum client compatibility. Every user-supplied field is escaped.
func notificationHTML(data contact.Payload) string {
	name := html.EscapeString(data.Name)
	email := html.EscapeString(data.Email)
	message := strings.ReplaceAll(html.EscapeString(data.Message), "\n", "<br />")

	var extraRows strings.Builder
	if data.Company != "" {
		extraRows.WriteString(detailRow("Company", html.EscapeString(data.Company)))
	}
	if data.Phone != "" {
		extraRows.WriteString(detailRow("Phone", html.EscapeString(data.Phone)))
	}

	return fmt.Sprintf(`<!DOCTYPE html PUBLIC "-//W3C//DTD XHTML 1.0 Transitional//EN" "http://www.w3.org/TR/xhtml1/DTD/xhtml1-transitional.dtd">
<html xmlns="http://www.w3.org/1999/xhtml" lang="en">
<head>
	<meta http-equiv="Content-Type" content="text/html; charset=UTF-8" />
	<meta name="viewport" content="width=device-width, initial-scale=1.0" />
	<title>New contact request</title>
</head>
<body style="margin: 0; padding: 0; font-family: 'Helvetica Neue', Helvetica, Arial, sans-serif; background-color: #f7f9fc; -webkit-text-size-adjust: 100%%; -ms-text-size-adjust: 100%%;">
	<table border="0" cellpadding="0" cellspacing="0" width="100%%" style="border-collapse: collapse;">
		<tr>
			<td style="padding: 40px 0;">
				<!-- header -->
				<table align="center" border="0" cellpadding="0" cellspacing="0" width="600" style="border-collapse: collapse; background-color: #111827; border-radius: 8px 8px 0 0;">
					<tr>
						<td align="center" style="padding: 30px 0; color: #ffffff;">
							<h1 style="margin: 0; font-size: 24px; font-weight: 700;">New contact request</h1>
						</td>
					</tr>
				</table>

				<!-- body -->
				<table align="center" border="0" cellpadding="0" cellspacing="0" width="600" style="border-collapse: collapse; background-color: #ffffff; box-shadow: 0 4px 15px rgba(0, 0, 0, 0.08);">
					<tr>
						<td style="padding: 40px 30px;">
							<table border="0" cellpadding="0" cellspacing="0" width="100%%" style="border-collapse: collapse;">
%s%s%s								<tr>
									<td style="color: #333333; font-size: 16px; line-height: 1.6; padding-top: 20px;">
										<p style="margin-top: 0; margin-bottom: 10px; font-weight: bold; color: #111827;">Message</p>
										<p style="margin-top: 0; margin-bottom: 0;">%s</p>
									</td>
								</tr>
							</table>
						</td>
					</tr>
				</table>

				<!-- footer -->
				<table align="center" border="0" cellpadding="0" cellspacing="0" width="600" style="border-collapse: collapse; background-color: #f0f2fa; border-radius: 0 0 8px 8px;">
					<tr>
						<td align="center" style="padding: 20px; color: #666666; font-size: 12px; line-height: 1.5;">
							<p style="margin: 0;">Sent from the Ch3rryPi3 website contact form. Reply to this email to answer directly.</p>
						</td>
					</tr>
				</table>
			</td>
		</tr>
	</table>
</body>
</html>`,
		detailRow("Name", name),
		detailRow("Email", fmt.Sprintf(`<a href="mailto:%s" style="color: #111827;">%s</a>`, email, email)),
		extraRows.String(),
		message,
	)
}

func detailRow(label, value string) string {
	return fmt.Sprintf(`								<tr>
									<td style="color: #333333; font-size: 16px; line-height: 1.6; padding-bottom: 8px;">
										<strong style="color: #111827;">%s:</strong> %s
									</td>
								</tr>
`, label, value)
}
