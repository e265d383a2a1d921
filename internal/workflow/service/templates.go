package service

import "buildportal/internal/workflow/transport"

// Template is a notification template resolved by workflow type + action.
type Template struct {
	Subject  string
	Content  string
	Priority string
}

type templateKey struct {
	WorkflowType string
	Action       string
}

// catalog maps (workflowType, action) to its notification template.
// Placeholders use {key} or {key:format} syntax against the event data bag.
var catalog = map[templateKey]Template{
	{transport.TypeQuotationWorkflow, "submitted"}: {
		Subject:  "Quotation awaiting your approval",
		Content:  "A quotation of {amount:.2f} EUR for project {projectId} was submitted for approval.",
		Priority: transport.PriorityHigh,
	},
	{transport.TypeQuotationWorkflow, "approved"}: {
		Subject:  "Quotation approved",
		Content:  "The quotation of {amount:.2f} EUR for project {projectId} was approved and sent to the client.",
		Priority: transport.PriorityNormal,
	},
	{transport.TypeQuotationWorkflow, "rejected"}: {
		Subject:  "Quotation rejected",
		Content:  "The quotation for project {projectId} was rejected: {note}",
		Priority: transport.PriorityHigh,
	},
	{transport.TypeQuotationWorkflow, "sent"}: {
		Subject:  "New quotation received",
		Content:  "You received a quotation of {amount:.2f} EUR for project {projectId}, valid until {validUntil:2006-01-02}.",
		Priority: transport.PriorityNormal,
	},
	{transport.TypeQuotationWorkflow, "accepted"}: {
		Subject:  "Quotation accepted",
		Content:  "The client accepted the quotation of {amount:.2f} EUR for project {projectId}.",
		Priority: transport.PriorityHigh,
	},
	{transport.TypeQuotationWorkflow, "declined"}: {
		Subject:  "Quotation declined",
		Content:  "The client declined the quotation for project {projectId}: {note}",
		Priority: transport.PriorityHigh,
	},
	{transport.TypeInvoiceWorkflow, "issued"}: {
		Subject:  "New invoice",
		Content:  "An invoice of {amount:.2f} EUR for project {projectId} is due on {dueDate:2006-01-02}.",
		Priority: transport.PriorityHigh,
	},
	{transport.TypeInvoiceWorkflow, "paid"}: {
		Subject:  "Invoice paid",
		Content:  "The invoice of {amount:.2f} EUR for project {projectId} was paid by {paidBy} on {paidAt:2006-01-02}.",
		Priority: transport.PriorityNormal,
	},
	{transport.TypeInvoiceWorkflow, "cancelled"}: {
		Subject:  "Invoice cancelled",
		Content:  "The invoice for project {projectId} was cancelled.",
		Priority: transport.PriorityNormal,
	},
	{transport.TypeTaskAssignment, "assigned"}: {
		Subject:  "New task assigned",
		Content:  "You were assigned the task {taskName} with deadline {deadline:2006-01-02}.",
		Priority: transport.PriorityHigh,
	},
	{transport.TypeProjectUpdate, "updated"}: {
		Subject:  "Project update",
		Content:  "Project {projectName}: {summary}",
		Priority: transport.PriorityLow,
	},
	{transport.TypeSystemAlert, "alert"}: {
		Subject:  "System alert",
		Content:  "{message}",
		Priority: transport.PriorityUrgent,
	},
}

// LookupTemplate resolves a template; ok is false for unknown combinations.
func LookupTemplate(workflowType, action string) (Template, bool) {
	tpl, ok := catalog[templateKey{WorkflowType: workflowType, Action: action}]
	return tpl, ok
}
