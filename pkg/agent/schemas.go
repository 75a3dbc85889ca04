package agent

// JSON schemas constraining the structured model calls. Kept next to the
// calls that use them; the prompt text references the same field names.

const classificationSchema = `{
  "type": "object",
  "properties": {
    "reasoning": {"type": "string"},
    "userFacingReasoning": {"type": "string"},
    "isAboutStockFundamentals": {"type": "boolean"},
    "isAboutIndustryRelevance": {"type": "boolean"},
    "isAboutEtfs": {"type": "boolean"},
    "isAboutNews": {"type": "boolean"},
    "isAboutEarningsDates": {"type": "boolean"},
    "isAboutDividendDates": {"type": "boolean"},
    "isAboutPopularInvestors": {"type": "boolean"},
    "isAboutSmartPortfolios": {"type": "boolean"},
    "isAboutAssetPricesOrPerformance": {"type": "boolean"},
    "isAboutUserPortfolio": {"type": "boolean"},
    "isAboutEarningsCallsOrRevenue": {"type": "boolean"},
    "isAboutImportantCEOs": {"type": "boolean"},
    "isAboutCorporateGuidance": {"type": "boolean"},
    "isAboutCrypto": {"type": "boolean"},
    "isAboutMacroEconomy": {"type": "boolean"},
    "isAboutCommodities": {"type": "boolean"},
    "isAboutCurrencies": {"type": "boolean"},
    "hasTradeIntent": {"type": "boolean"},
    "candidateNames": {"type": "array", "items": {"type": "string"}},
    "priorTurnTickers": {"type": "array", "items": {"type": "string"}}
  },
  "required": ["reasoning", "userFacingReasoning", "candidateNames", "priorTurnTickers"],
  "additionalProperties": false
}`

const candidateQuerySchema = `{
  "type": "object",
  "properties": {
    "reasoning": {"type": "string"},
    "resultCount": {"type": "integer"},
    "sql": {"type": ["string", "null"]}
  },
  "required": ["reasoning", "sql"],
  "additionalProperties": false
}`

const portfolioAnalysisSchema = `{
  "type": "object",
  "properties": {
    "analysis": {"type": "string"}
  },
  "required": ["analysis"],
  "additionalProperties": false
}`

const finalAnswerSchema = `{
  "type": "object",
  "properties": {
    "answer": {"type": "string"},
    "responseShape": {"type": "string", "enum": ["text", "list", "chart"]},
    "chartType": {"type": "string"},
    "chartPoints": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "label": {"type": "string"},
          "value": {"type": "number"}
        },
        "required": ["label", "value"]
      }
    },
    "title": {"type": ["string", "null"]},
    "followUpQuestions": {"type": "array", "items": {"type": "string"}, "maxItems": 3},
    "tickersToDisplay": {"type": "array", "items": {"type": "string"}},
    "usernamesToDisplay": {"type": "array", "items": {"type": "string"}},
    "displayPreference": {"type": "string"}
  },
  "required": ["answer", "responseShape", "title"],
  "additionalProperties": false
}`
