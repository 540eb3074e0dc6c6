package parser

import "strings"

// Strategy recognises one known log layout and extracts it. CanParse is a
// marker check only; the layout itself is described by data tables.
type Strategy struct {
	Name    string
	Markers []string

	groups   []fieldGroup
	monsters sectionRule
	items    sectionRule
}

// CanParse reports whether text carries one of the strategy's markers.
func (s Strategy) CanParse(text string) bool {
	for _, m := range s.Markers {
		if strings.Contains(text, m) {
			return true
		}
	}
	return false
}

func (s Strategy) parse(doc *document) *Fields {
	out := &Fields{Strategy: s.Name, Format: doc.format}
	for _, g := range s.groups {
		if g.filled(out) {
			continue
		}
		g.extract(doc, out)
	}
	if body, ok := s.monsters.extract(doc.text); ok {
		out.KilledMonsters = doc.entries("killed_monsters", body)
	}
	if body, ok := s.items.extract(doc.text); ok {
		out.LootedItems = doc.entries("looted_items", body)
	}
	return out
}

// builtinStrategies are tried in this order; the first that claims the text
// is used alone.
var builtinStrategies = []Strategy{
	{
		// The tracker's own "Session data:" export, multi-line or single-line.
		Name:    "standard",
		Markers: []string{"Session data:"},
		groups: []fieldGroup{
			dateRange(
				`From[ \t]+(.+?)[ \t]+to[ \t]+(.+?)[ \t]+Session[ \t]*:`,
				`Session data:[ \t]*From[ \t]+(.+?)[ \t]+to[ \t]+(.+?)[ \t]*$`,
			),
			duration("Session"),
			pair("xp gain", "Raw XP Gain", "XP Gain", fieldRawXPGain, fieldTotalXPGain),
			pair("xp/h", "XP/h", "Raw XP/h", fieldTotalXPPerHour, fieldRawXPPerHour),
			{
				name: "loot",
				kind: numericGroup,
				patterns: []groupPattern{
					{re: seq("Loot", "Supplies", "Balance"), fields: []field{fieldLoot, fieldSupplies, fieldBalance}},
					{re: seq("Supplies", "Loot", "Balance"), fields: []field{fieldSupplies, fieldLoot, fieldBalance}},
				},
			},
			pair("damage", "Damage", "Damage/h", fieldDamage, fieldDamagePerHour),
			pair("healing", "Healing", "Healing/h", fieldHealing, fieldHealingPerHour),
		},
		monsters: newInlineSectionRule([]string{"Killed Monsters"}, []string{"Looted Items"}),
		items:    newInlineSectionRule([]string{"Looted Items"}, []string{"Killed Monsters"}),
	},
	{
		Name:    "hunt-summary",
		Markers: []string{"Hunt Summary:"},
		groups: []fieldGroup{
			dateRange(`Hunt period:[ \t]*(.+?)[ \t]+-[ \t]+(.+?)[ \t]*$`),
			duration("Duration"),
			pair("xp gain", "Raw Experience", "Experience", fieldRawXPGain, fieldTotalXPGain),
			single("xp gain", "Experience", fieldTotalXPGain),
			pair("xp/h", "Experience/h", "Raw Experience/h", fieldTotalXPPerHour, fieldRawXPPerHour),
			single("xp/h", "Experience/h", fieldTotalXPPerHour),
			{
				name: "loot",
				kind: numericGroup,
				patterns: []groupPattern{
					{re: seq("Loot", "Supplies", "Balance"), fields: []field{fieldLoot, fieldSupplies, fieldBalance}},
					{re: seq("Loot", "Supplies", "Profit"), fields: []field{fieldLoot, fieldSupplies, fieldBalance}},
				},
			},
			pair("damage", "Damage", "Damage/h", fieldDamage, fieldDamagePerHour),
			pair("healing", "Healing", "Healing/h", fieldHealing, fieldHealingPerHour),
		},
		monsters: newSectionRule([]string{"Monsters Killed"}, []string{"Items Looted"}),
		items:    newSectionRule([]string{"Items Looted"}, []string{"Monsters Killed"}),
	},
	{
		Name:    "relatorio",
		Markers: []string{"Relatório de Caça:", "Resumo da Sessão:"},
		groups: []fieldGroup{
			dateRange(`Período:[ \t]*(.+?)[ \t]+até[ \t]+(.+?)[ \t]*$`),
			duration("Duração"),
			pair("xp gain", "Experiência Bruta", "Experiência", fieldRawXPGain, fieldTotalXPGain),
			single("xp gain", "Experiência", fieldTotalXPGain),
			pair("xp/h", "Experiência/h", "Experiência Bruta/h", fieldTotalXPPerHour, fieldRawXPPerHour),
			single("xp/h", "Experiência/h", fieldTotalXPPerHour),
			{
				name: "loot",
				kind: numericGroup,
				patterns: []groupPattern{
					{re: seq("Valor do Loot", "Custo de Suprimentos", "Lucro"), fields: []field{fieldLoot, fieldSupplies, fieldBalance}},
					{re: seq("Loot", "Suprimentos", "Saldo"), fields: []field{fieldLoot, fieldSupplies, fieldBalance}},
				},
			},
			pair("damage", "Dano", "Dano/h", fieldDamage, fieldDamagePerHour),
			pair("healing", "Cura", "Cura/h", fieldHealing, fieldHealingPerHour),
		},
		monsters: newSectionRule([]string{"Monstros Mortos"}, []string{"Itens Saqueados"}),
		items:    newSectionRule([]string{"Itens Saqueados"}, []string{"Monstros Mortos"}),
	},
}
