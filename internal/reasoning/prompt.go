package reasoning

import "encoding/json"

// The numeric thresholds applied during reconciliation are the
// authoritative source of risk levels; the instruction to report only
// high-risk devices acts as a best-effort pre-filter on the service.
const systemPrompt = `You are a WiFi skimmer detection expert.

ANALYZE EVERY SINGLE DEVICE in the input list.

RULES:
1. Compute EXACTLY ONE assessment for EACH unique bssid (or mac if no bssid)
2. NEVER skip any device
3. Use device_id = bssid if available, otherwise mac
4. device_id must be a valid string, NEVER null
5. Include: risk_score (0-100), confidence (0.0-1.0), explanation, recommendation

Prefer reporting devices whose risk_level would be high.`

var assessmentTool = toolDef{
	Type: "function",
	Function: toolFunction{
		Name:        "wifi_risk_assessment",
		Description: "Assess WiFi devices for skimming risk.",
		Parameters: json.RawMessage(`{
			"type": "object",
			"properties": {
				"assessments": {
					"type": "array",
					"items": {
						"type": "object",
						"properties": {
							"device_id": {"type": "string"},
							"risk_score": {"type": "number"},
							"confidence": {"type": "number"},
							"explanation": {"type": "string"},
							"recommendation": {"type": "string"}
						},
						"required": ["device_id", "risk_score", "confidence", "explanation", "recommendation"]
					}
				}
			},
			"required": ["assessments"]
		}`),
	},
}
