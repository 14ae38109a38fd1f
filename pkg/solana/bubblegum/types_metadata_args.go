package bubblegum

import (
	"bytes"
	"crypto/ed25519"
	"unicode/utf8"

	bin "github.com/gagliardetto/binary"
	"github.com/pkg/errors"
)

const (
	MaxNameLength           = 32
	MaxSymbolLength         = 10
	MaxUriLength            = 200
	MaxSellerFeeBasisPoints = 10000
	MaxCreatorLimit         = 5
)

var (
	ErrInvalidName          = errors.New("name must be between 1 and 32 bytes")
	ErrInvalidSymbol        = errors.New("symbol must be at most 10 bytes")
	ErrInvalidUri           = errors.New("uri must be between 1 and 200 bytes")
	ErrInvalidSellerFee     = errors.New("seller fee basis points cannot exceed 10000")
	ErrTooManyCreators      = errors.New("exceeded max creator limit")
	ErrInvalidCreatorShares = errors.New("creator shares must add up to 100")
	ErrDuplicateCreator     = errors.New("duplicate creator address")
)

type TokenStandard uint8

const (
	TokenStandardNonFungible TokenStandard = iota
	TokenStandardFungibleAsset
	TokenStandardFungible
	TokenStandardNonFungibleEdition
)

type TokenProgramVersion uint8

const (
	TokenProgramVersionOriginal TokenProgramVersion = iota
	TokenProgramVersionToken2022
)

type UseMethod uint8

const (
	UseMethodBurn UseMethod = iota
	UseMethodMultiple
	UseMethodSingle
)

type Collection struct {
	Verified bool
	Key      ed25519.PublicKey
}

type Uses struct {
	UseMethod UseMethod
	Remaining uint64
	Total     uint64
}

type Creator struct {
	Address  ed25519.PublicKey
	Verified bool
	Share    uint8
}

// MetadataArgs describes the compressed NFT minted as a ticket receipt.
//
// Reference: https://github.com/metaplex-foundation/mpl-bubblegum/blob/2d9ae5b02dfd5dcd2c6a8ef5d4edd4c0d0f0a8ff/programs/bubblegum/program/src/state/metaplex_adapter.rs#L76
type MetadataArgs struct {
	Name                 string
	Symbol               string
	Uri                  string
	SellerFeeBasisPoints uint16
	PrimarySaleHappened  bool
	IsMutable            bool
	EditionNonce         *uint8
	TokenStandard        *TokenStandard
	Collection           *Collection
	Uses                 *Uses
	TokenProgramVersion  TokenProgramVersion
	Creators             []Creator
}

// Validate checks the constraints the token metadata program enforces when
// minting, so bad metadata is caught before a transaction is built.
func (m *MetadataArgs) Validate() error {
	if len(m.Name) == 0 || len(m.Name) > MaxNameLength || !utf8.ValidString(m.Name) {
		return errors.Wrapf(ErrInvalidName, "got %d bytes", len(m.Name))
	}
	if len(m.Symbol) > MaxSymbolLength || !utf8.ValidString(m.Symbol) {
		return errors.Wrapf(ErrInvalidSymbol, "got %d bytes", len(m.Symbol))
	}
	if len(m.Uri) == 0 || len(m.Uri) > MaxUriLength || !utf8.ValidString(m.Uri) {
		return errors.Wrapf(ErrInvalidUri, "got %d bytes", len(m.Uri))
	}
	if m.SellerFeeBasisPoints > MaxSellerFeeBasisPoints {
		return errors.Wrapf(ErrInvalidSellerFee, "got %d", m.SellerFeeBasisPoints)
	}

	if len(m.Creators) == 0 {
		return nil
	}
	if len(m.Creators) > MaxCreatorLimit {
		return errors.Wrapf(ErrTooManyCreators, "got %d", len(m.Creators))
	}

	var total uint32
	for i, creator := range m.Creators {
		if len(creator.Address) != ed25519.PublicKeySize {
			return errors.Errorf("creator %d has an invalid address", i)
		}
		for _, other := range m.Creators[:i] {
			if bytes.Equal(creator.Address, other.Address) {
				return ErrDuplicateCreator
			}
		}
		total += uint32(creator.Share)
	}
	if total != 100 {
		return errors.Wrapf(ErrInvalidCreatorShares, "got %d", total)
	}

	return nil
}

// Marshal serializes the metadata with Borsh.
func (m *MetadataArgs) Marshal() ([]byte, error) {
	buf := new(bytes.Buffer)
	enc := bin.NewBorshEncoder(buf)

	for _, s := range []string{m.Name, m.Symbol, m.Uri} {
		if err := writeString(enc, s); err != nil {
			return nil, err
		}
	}
	if err := enc.WriteUint16(m.SellerFeeBasisPoints, bin.LE); err != nil {
		return nil, err
	}
	if err := enc.WriteBool(m.PrimarySaleHappened); err != nil {
		return nil, err
	}
	if err := enc.WriteBool(m.IsMutable); err != nil {
		return nil, err
	}

	if err := enc.WriteBool(m.EditionNonce != nil); err != nil {
		return nil, err
	}
	if m.EditionNonce != nil {
		if err := enc.WriteUint8(*m.EditionNonce); err != nil {
			return nil, err
		}
	}

	if err := enc.WriteBool(m.TokenStandard != nil); err != nil {
		return nil, err
	}
	if m.TokenStandard != nil {
		if err := enc.WriteUint8(uint8(*m.TokenStandard)); err != nil {
			return nil, err
		}
	}

	if err := enc.WriteBool(m.Collection != nil); err != nil {
		return nil, err
	}
	if m.Collection != nil {
		if err := enc.WriteBool(m.Collection.Verified); err != nil {
			return nil, err
		}
		if err := writeKey(enc, m.Collection.Key); err != nil {
			return nil, err
		}
	}

	if err := enc.WriteBool(m.Uses != nil); err != nil {
		return nil, err
	}
	if m.Uses != nil {
		if err := enc.WriteUint8(uint8(m.Uses.UseMethod)); err != nil {
			return nil, err
		}
		if err := enc.WriteUint64(m.Uses.Remaining, bin.LE); err != nil {
			return nil, err
		}
		if err := enc.WriteUint64(m.Uses.Total, bin.LE); err != nil {
			return nil, err
		}
	}

	if err := enc.WriteUint8(uint8(m.TokenProgramVersion)); err != nil {
		return nil, err
	}

	if err := enc.WriteUint32(uint32(len(m.Creators)), bin.LE); err != nil {
		return nil, err
	}
	for _, creator := range m.Creators {
		if err := writeKey(enc, creator.Address); err != nil {
			return nil, err
		}
		if err := enc.WriteBool(creator.Verified); err != nil {
			return nil, err
		}
		if err := enc.WriteUint8(creator.Share); err != nil {
			return nil, err
		}
	}

	return buf.Bytes(), nil
}

// Unmarshal decodes Borsh serialized metadata, returning the number of bytes
// consumed.
func (m *MetadataArgs) Unmarshal(data []byte) (int, error) {
	dec := bin.NewBorshDecoder(data)

	*m = MetadataArgs{}

	var err error
	if m.Name, err = readString(dec); err != nil {
		return 0, err
	}
	if m.Symbol, err = readString(dec); err != nil {
		return 0, err
	}
	if m.Uri, err = readString(dec); err != nil {
		return 0, err
	}
	if m.SellerFeeBasisPoints, err = dec.ReadUint16(bin.LE); err != nil {
		return 0, errors.Wrap(ErrInvalidInstructionData, err.Error())
	}
	if m.PrimarySaleHappened, err = readBool(dec); err != nil {
		return 0, err
	}
	if m.IsMutable, err = readBool(dec); err != nil {
		return 0, err
	}

	if present, err := readBool(dec); err != nil {
		return 0, err
	} else if present {
		nonce, err := readUint8(dec)
		if err != nil {
			return 0, err
		}
		m.EditionNonce = &nonce
	}

	if present, err := readBool(dec); err != nil {
		return 0, err
	} else if present {
		standard, err := readUint8(dec)
		if err != nil {
			return 0, err
		}
		tokenStandard := TokenStandard(standard)
		m.TokenStandard = &tokenStandard
	}

	if present, err := readBool(dec); err != nil {
		return 0, err
	} else if present {
		var collection Collection
		if collection.Verified, err = readBool(dec); err != nil {
			return 0, err
		}
		if collection.Key, err = readKey(dec); err != nil {
			return 0, err
		}
		m.Collection = &collection
	}

	if present, err := readBool(dec); err != nil {
		return 0, err
	} else if present {
		var uses Uses
		method, err := readUint8(dec)
		if err != nil {
			return 0, err
		}
		uses.UseMethod = UseMethod(method)
		if uses.Remaining, err = dec.ReadUint64(bin.LE); err != nil {
			return 0, errors.Wrap(ErrInvalidInstructionData, err.Error())
		}
		if uses.Total, err = dec.ReadUint64(bin.LE); err != nil {
			return 0, errors.Wrap(ErrInvalidInstructionData, err.Error())
		}
		m.Uses = &uses
	}

	version, err := readUint8(dec)
	if err != nil {
		return 0, err
	}
	m.TokenProgramVersion = TokenProgramVersion(version)

	count, err := dec.ReadUint32(bin.LE)
	if err != nil {
		return 0, errors.Wrap(ErrInvalidInstructionData, err.Error())
	}
	if count > MaxCreatorLimit {
		return 0, errors.Wrapf(ErrTooManyCreators, "got %d", count)
	}
	for i := uint32(0); i < count; i++ {
		var creator Creator
		if creator.Address, err = readKey(dec); err != nil {
			return 0, err
		}
		if creator.Verified, err = readBool(dec); err != nil {
			return 0, err
		}
		if creator.Share, err = readUint8(dec); err != nil {
			return 0, err
		}
		m.Creators = append(m.Creators, creator)
	}

	return len(data) - dec.Remaining(), nil
}

func writeString(enc *bin.Encoder, s string) error {
	if err := enc.WriteUint32(uint32(len(s)), bin.LE); err != nil {
		return err
	}
	return enc.WriteBytes([]byte(s), false)
}

func writeKey(enc *bin.Encoder, key ed25519.PublicKey) error {
	if len(key) != ed25519.PublicKeySize {
		return errors.Errorf("invalid public key length %d", len(key))
	}
	return enc.WriteBytes(key, false)
}

func readString(dec *bin.Decoder) (string, error) {
	length, err := dec.ReadUint32(bin.LE)
	if err != nil {
		return "", errors.Wrap(ErrInvalidInstructionData, err.Error())
	}
	if int(length) > dec.Remaining() {
		return "", errors.Wrapf(ErrInvalidInstructionData, "string length %d exceeds remaining data", length)
	}
	b, err := dec.ReadNBytes(int(length))
	if err != nil {
		return "", errors.Wrap(ErrInvalidInstructionData, err.Error())
	}
	return string(b), nil
}

func readKey(dec *bin.Decoder) (ed25519.PublicKey, error) {
	b, err := dec.ReadNBytes(ed25519.PublicKeySize)
	if err != nil {
		return nil, errors.Wrap(ErrInvalidInstructionData, err.Error())
	}
	return ed25519.PublicKey(b), nil
}

func readBool(dec *bin.Decoder) (bool, error) {
	v, err := readUint8(dec)
	if err != nil {
		return false, err
	}
	switch v {
	case 0:
		return false, nil
	case 1:
		return true, nil
	default:
		return false, errors.Wrapf(ErrInvalidInstructionData, "invalid bool %d", v)
	}
}

func readUint8(dec *bin.Decoder) (uint8, error) {
	v, err := dec.ReadUint8()
	if err != nil {
		return 0, errors.Wrap(ErrInvalidInstructionData, err.Error())
	}
	return v, nil
}
