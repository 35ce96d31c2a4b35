package sentinel

import "regexp"

// Default signature patterns. High-severity patterns cover injection classes
// where a match is near-certain abuse; low-severity patterns are broader and
// only recorded, since they can fire on legitimate content.
var (
	pathTraversalPattern = regexp.MustCompile(`(?i)(\.\./|\.\.\\|%2e%2e%2f|%2e%2e/|\.\.%2f)`)

	sqlInjectionPattern = regexp.MustCompile(`(?i)(union\s+select|'\s*or\s+['"\w]+\s*=|insert\s+into|delete\s+from|drop\s+table|;\s*(update|delete|insert|create|drop|alter)\s)`)

	remoteCodePattern = regexp.MustCompile(`(?i)(etc/passwd|etc/shadow|proc/self|eval\s*\(|exec\s*\(|base64_decode\s*\()`)

	xssPattern = regexp.MustCompile(`(?i)(<script[^>]*>|javascript:|\bon\w+\s*=|<iframe[^>]*>)`)

	cmsProbePattern = regexp.MustCompile(`(?i)(wp-admin|wp-login\.php|wp-content|xmlrpc\.php|phpmyadmin|\.env\b|\.git/)`)

	templateInjectionPattern = regexp.MustCompile(`(\{\{.+\}\}|\$\{.+\}|<%.+%>)`)
)

// Signature names as they appear in audit events.
const (
	SignaturePathTraversal     = "path_traversal"
	SignatureSQLInjection      = "sql_injection"
	SignatureRemoteCode        = "remote_code"
	SignatureXSS               = "xss"
	SignatureCMSProbe          = "cms_probe"
	SignatureTemplateInjection = "template_injection"
)

// DefaultSignatures returns the built-in signature set in scan order.
// Traversal is listed before remote-code so a traversal path reaching for
// /etc/passwd is attributed to the traversal itself.
func DefaultSignatures() []Signature {
	return []Signature{
		{Name: SignaturePathTraversal, Severity: SeverityHigh, pattern: pathTraversalPattern},
		{Name: SignatureSQLInjection, Severity: SeverityHigh, pattern: sqlInjectionPattern},
		{Name: SignatureRemoteCode, Severity: SeverityHigh, pattern: remoteCodePattern},
		{Name: SignatureXSS, Severity: SeverityLow, pattern: xssPattern},
		{Name: SignatureCMSProbe, Severity: SeverityLow, pattern: cmsProbePattern},
		{Name: SignatureTemplateInjection, Severity: SeverityLow, pattern: templateInjectionPattern},
	}
}
