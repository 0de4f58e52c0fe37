package analyzer

const systemPrompt = `You are a bid management analyst reviewing tender documents for a telecom and IT solutions vendor.
Answer with a single JSON object that follows the requested shape exactly. Do not add commentary.`

const checklistMatchPrompt = `Check the documents below against the checklist.
Qualification criteria:
%s

Checklist (JSON):
%s

Return {"updatedChecklist":[{"id":"<checklist id>","status":"Complete|Pending","aiComment":"<evidence or gap>"}],
"detectedTags":["..."],"confidenceScore":0-100,"assessment":"<one paragraph>"}.
Only use ids from the checklist. Mark an item Complete only when the documents clearly satisfy it.

Documents:
%s`

const checklistExtractPrompt = `Extract the qualification and compliance requirements from this RFP/tender document.
Return {"technicalQualificationChecklist":[{"requirement":"","type":"","aiComment":""}],
"complianceList":[{"requirement":"","description":"","isMandatory":true}],
"summaryRequirements":"","scopeOfWork":""}.

Document %q:
%s`

const pricingPrompt = `Extract the full bill of quantities and pricing from this document.
Contract duration: %s
Existing pricing format rows (JSON):
%s

Return {"populatedFinancialFormat":[{"item":"","description":"","uom":"","quantity":0,"unitPrice":0}],
"vendorPaymentTerms":"","customerPaymentTerms":"","contractDuration":""}.
Reuse the item names of existing rows when the document prices them.

Document %q:
%s`

const tagPrompt = `Tag each file for a document vault: up to 6 short tags and a one sentence summary per file.
Return {"taggedFiles":[{"fileName":"<exact file name>","tags":[""],"summary":""}]}.

Files:
%s`

const solutionFitPrompt = `Assess how well the vendor's technical solution fits this bid.
Bid (JSON):
%s

Return {"solutionFit":"High|Medium|Low","fitExplanation":"","gapAnalysis":[""],"recommendations":[""]}.

Technical documents:
%s`
