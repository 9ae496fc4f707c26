package registry

// DefaultCatalogue returns the baseline GEM function set this stack ships
// with: Establish Communications, the online/offline control handshakes,
// the generic error-reply family, and an EC namelist request/reply modeled
// on original_source/secsgem/secs/data_items/ecname.py (one ECID maps to an
// <L[3] <U4 ecid> <A ecname> <A ecunits>> triple; S2F30's body is a list of
// those triples, kept unconstrained in length since a catalogue doesn't
// know an equipment's constant count up front).
func DefaultCatalogue() []FunctionEntry {
	ecNamelistEntry := BodySchema{
		Kind: KindList,
		Elements: []BodySchema{
			{
				Kind: KindList,
				Elements: []BodySchema{
					{Name: "ECID", Kind: KindUint},
					{Name: "ECNAME", Kind: KindASCII},
					{Name: "ECUNITS", Kind: KindASCII},
				},
			},
		},
	}

	return []FunctionEntry{
		{
			Stream: 1, Function: 1, Name: "Are You There",
			Body: BodySchema{Kind: KindEmpty}, ReplyExpected: true,
			SecondaryStream: 1, SecondaryFunction: 2,
		},
		{
			Stream: 1, Function: 2, Name: "On Line Data",
			Body: Any,
		},
		{
			Stream: 1, Function: 13, Name: "Establish Communications Request",
			Body: BodySchema{Kind: KindEmpty}, ReplyExpected: true,
			SecondaryStream: 1, SecondaryFunction: 14,
		},
		{
			Stream: 1, Function: 14, Name: "Establish Communications Request Acknowledge",
			Body: BodySchema{
				Kind: KindList,
				Elements: []BodySchema{
					{Name: "COMMACK", Kind: KindBinary, MaxLen: 1},
				},
			},
		},
		{
			Stream: 1, Function: 15, Name: "Request Offline",
			Body: BodySchema{Kind: KindEmpty}, ReplyExpected: true,
			SecondaryStream: 1, SecondaryFunction: 16,
		},
		{
			Stream: 1, Function: 16, Name: "Offline Acknowledge",
			Body: BodySchema{Kind: KindBinary, MaxLen: 1},
		},
		{
			Stream: 1, Function: 17, Name: "Request Online",
			Body: BodySchema{Kind: KindEmpty}, ReplyExpected: true,
			SecondaryStream: 1, SecondaryFunction: 18,
		},
		{
			Stream: 1, Function: 18, Name: "Online Acknowledge",
			Body: BodySchema{Kind: KindBinary, MaxLen: 1},
		},
		{
			Stream: 2, Function: 29, Name: "Equipment Constant Namelist Request",
			Body: BodySchema{Kind: KindList}, ReplyExpected: true,
			SecondaryStream: 2, SecondaryFunction: 30,
		},
		{
			Stream: 2, Function: 30, Name: "Equipment Constant Namelist",
			Body: ecNamelistEntry,
		},
		{
			Stream: 6, Function: 11, Name: "Event Report Send",
			Body: BodySchema{Kind: KindList}, ReplyExpected: true,
			SecondaryStream: 6, SecondaryFunction: 12,
		},
		{
			Stream: 6, Function: 12, Name: "Event Report Acknowledge",
			Body: BodySchema{Kind: KindBinary, MaxLen: 1},
		},
		{
			Stream: 9, Function: 1, Name: "Unrecognized Device ID",
			Body: BodySchema{Kind: KindBinary},
		},
		{
			Stream: 9, Function: 3, Name: "Unrecognized Stream Type",
			Body: BodySchema{Kind: KindBinary},
		},
		{
			Stream: 9, Function: 5, Name: "Unrecognized Function Type",
			Body: BodySchema{Kind: KindBinary},
		},
		{
			Stream: 9, Function: 7, Name: "Illegal Data",
			Body: BodySchema{Kind: KindBinary},
		},
		{
			Stream: 9, Function: 9, Name: "Transaction Timer Timeout",
			Body: BodySchema{Kind: KindBinary},
		},
		{
			Stream: 9, Function: 11, Name: "Data Too Long",
			Body: BodySchema{Kind: KindBinary},
		},
	}
}
