package plcop

// wireService is the JSON shape of one services map entry.
type wireService struct {
	Type     string `json:"type"`
	Endpoint string `json:"endpoint"`
}

// wireOperation is the exact submission payload shape from §6: field
// names type, rotationKeys, verificationMethods, alsoKnownAs,
// services, prev, sig are wire-protocol contracts, not implementation
// detail — renaming any of them breaks directory compatibility.
type wireOperation struct {
	Type                string                 `json:"type"`
	RotationKeys        []string               `json:"rotationKeys"`
	VerificationMethods map[string]string      `json:"verificationMethods"`
	AlsoKnownAs         []string               `json:"alsoKnownAs"`
	Services            map[string]wireService `json:"services"`
	Prev                *string                `json:"prev"`
	Sig                 string                 `json:"sig,omitempty"`
}

// wireTombstone is the §4.6 minimal tombstone payload: just type,
// prev, and sig. A tombstone carries no key material, so it has none
// of wireOperation's other fields.
type wireTombstone struct {
	Type string `json:"type"`
	Prev string `json:"prev"`
	Sig  string `json:"sig,omitempty"`
}

// ToWire renders the unsigned operation as its submission payload,
// with sig omitted (there is none yet).
func (op *Operation) ToWire() (any, error) {
	return op.toWire("")
}

// ToWire renders the signed operation as its submission payload,
// including sig.
func (s *SignedOperation) ToWire() (any, error) {
	return s.Operation.toWire(s.Sig)
}

func (op *Operation) toWire(sig string) (any, error) {
	if op.Type == TypeTombstone {
		return &wireTombstone{Type: op.Type, Prev: *op.Prev, Sig: sig}, nil
	}

	rotationKeys := make([]string, 0, len(op.RotationKeys))
	for _, k := range op.RotationKeys {
		didKey, err := didKeyString(k)
		if err != nil {
			return nil, err
		}
		rotationKeys = append(rotationKeys, didKey)
	}

	verificationMethods := make(map[string]string, len(op.VerificationMethods))
	for id, k := range op.VerificationMethods {
		didKey, err := didKeyString(k)
		if err != nil {
			return nil, err
		}
		verificationMethods[id] = didKey
	}

	alsoKnownAs := make([]string, 0, len(op.AlsoKnownAs))
	alsoKnownAs = append(alsoKnownAs, op.AlsoKnownAs...)

	services := make(map[string]wireService, len(op.Services))
	for id, svc := range op.Services {
		services[id] = wireService{Type: svc.Type, Endpoint: svc.Endpoint}
	}

	return &wireOperation{
		Type:                op.Type,
		RotationKeys:        rotationKeys,
		VerificationMethods: verificationMethods,
		AlsoKnownAs:         alsoKnownAs,
		Services:            services,
		Prev:                op.Prev,
		Sig:                 sig,
	}, nil
}
