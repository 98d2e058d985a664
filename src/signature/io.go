package signature

import (
	"bytes"
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"io/ioutil"
	"os"
	"strings"

	"github.com/mholt/archiver"
	"github.com/will-rowe/countergather/src/minhash"
	"gopkg.in/vmihailenco/msgpack.v2"
)

const (
	signatureClass   = "sourmash_signature"
	hashFunction     = "0.nthash64"
	license          = "CC0"
	signatureVersion = 0.4
)

// gzipMagic is the header of a gzip stream
var gzipMagic = []byte{0x1f, 0x8b}

// signatureExts are the archive members that are treated as signature files
var signatureExts = []string{".sig", ".json", ".mp"}

// sketchRecord is the on-disk layout of a single sketch
type sketchRecord struct {
	Num      uint32   `json:"num" msgpack:"num"`
	KSize    uint32   `json:"ksize" msgpack:"ksize"`
	Seed     uint64   `json:"seed" msgpack:"seed"`
	MaxHash  uint64   `json:"max_hash" msgpack:"max_hash"`
	Mins     []uint64 `json:"mins" msgpack:"mins"`
	MD5Sum   string   `json:"md5sum" msgpack:"md5sum"`
	Molecule string   `json:"molecule" msgpack:"molecule"`
}

// signatureRecord is the on-disk layout of a signature
type signatureRecord struct {
	Class        string         `json:"class" msgpack:"class"`
	Email        string         `json:"email" msgpack:"email"`
	HashFunction string         `json:"hash_function" msgpack:"hash_function"`
	Filename     string         `json:"filename" msgpack:"filename"`
	Name         string         `json:"name,omitempty" msgpack:"name"`
	License      string         `json:"license" msgpack:"license"`
	Signatures   []sketchRecord `json:"signatures" msgpack:"signatures"`
	Version      float64        `json:"version" msgpack:"version"`
}

// Load reads every signature held in a file or archive
func Load(path string) ([]*Signature, error) {
	if IsArchive(path) {
		return loadArchive(path)
	}
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read signature file: %w", err)
	}
	sigs, err := Decode(data, path)
	if err != nil {
		return nil, fmt.Errorf("could not parse signature file %v: %w", path, err)
	}
	return sigs, nil
}

// IsArchive reports if the path has the extension of an archive that can be walked
func IsArchive(path string) bool {
	format, err := archiver.ByExtension(path)
	if err != nil {
		return false
	}
	_, ok := format.(archiver.Walker)
	return ok
}

// loadArchive decodes each signature file held in an archive, in archive order
func loadArchive(path string) ([]*Signature, error) {
	sigs := []*Signature{}
	err := archiver.Walk(path, func(f archiver.File) error {
		if f.IsDir() || !isSignatureFile(f.Name()) {
			return nil
		}
		data, err := ioutil.ReadAll(f)
		if err != nil {
			return err
		}
		memberSigs, err := Decode(data, f.Name())
		if err != nil {
			return fmt.Errorf("could not parse %v: %w", f.Name(), err)
		}
		sigs = append(sigs, memberSigs...)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("could not read signature archive %v: %w", path, err)
	}
	if len(sigs) == 0 {
		return nil, fmt.Errorf("%v: %w", path, ErrNoSignatures)
	}
	return sigs, nil
}

// isSignatureFile checks the extension of an archive member, ignoring any .gz
func isSignatureFile(name string) bool {
	if strings.HasPrefix(name, ".") {
		return false
	}
	name = strings.TrimSuffix(name, ".gz")
	for _, ext := range signatureExts {
		if strings.HasSuffix(name, ext) {
			return true
		}
	}
	return false
}

// Decode converts the content of a signature file to signatures, the filename is used for any signature that doesn't record one
func Decode(data []byte, filename string) ([]*Signature, error) {
	if bytes.HasPrefix(data, gzipMagic) {
		gz, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		defer gz.Close()
		if data, err = ioutil.ReadAll(gz); err != nil {
			return nil, err
		}
	}
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, ErrEmptyFile
	}

	// JSON can hold either a list of signatures or a single one, anything else is taken to be msgpack
	records := []signatureRecord{}
	switch trimmed[0] {
	case '[':
		if err := json.Unmarshal(trimmed, &records); err != nil {
			return nil, err
		}
	case '{':
		record := signatureRecord{}
		if err := json.Unmarshal(trimmed, &record); err != nil {
			return nil, err
		}
		records = append(records, record)
	default:
		if err := msgpack.Unmarshal(data, &records); err != nil {
			return nil, err
		}
	}
	if len(records) == 0 {
		return nil, ErrNoSignatures
	}
	sigs := make([]*Signature, 0, len(records))
	for _, record := range records {
		sig, err := record.toSignature(filename)
		if err != nil {
			return nil, err
		}
		sigs = append(sigs, sig)
	}
	return sigs, nil
}

func (record *signatureRecord) toSignature(filename string) (*Signature, error) {
	if record.Filename != "" {
		filename = record.Filename
	}
	sig := New(record.Name, filename)
	for i, sr := range record.Signatures {
		sketch, err := sr.toSketch()
		if err != nil {
			return nil, fmt.Errorf("sketch %d of %q: %w", i, sig.Name(), err)
		}
		sig.AddSketch(sketch)
	}
	return sig, nil
}

func (sr *sketchRecord) toSketch() (minhash.Sketch, error) {
	molType := minhash.DNA
	if sr.Molecule != "" {
		mt, err := minhash.ParseMolType(sr.Molecule)
		if err != nil {
			return nil, err
		}
		molType = mt
	}
	switch {
	case sr.Num > 0:
		if len(sr.Mins) > int(sr.Num) {
			return nil, fmt.Errorf("bottom-k sketch holds %d hashes but num is %d", len(sr.Mins), sr.Num)
		}
		bk := minhash.NewBottomK(sr.KSize, molType, sr.Seed, sr.Num)
		for _, hv := range sr.Mins {
			bk.AddHash(hv)
		}
		return bk, nil
	case sr.MaxHash > 0:
		mh := minhash.NewKmerMinHash(sr.KSize, molType, sr.Seed, sr.MaxHash)
		if err := mh.AddHashes(sr.Mins); err != nil {
			return nil, err
		}
		return mh, nil
	}
	return nil, ErrUnknownSketch
}

// Encode converts signatures to JSON, or msgpack if binary is set
func Encode(sigs []*Signature, binary bool) ([]byte, error) {
	records := make([]signatureRecord, len(sigs))
	for i, sig := range sigs {
		records[i] = toRecord(sig)
	}
	if binary {
		return msgpack.Marshal(records)
	}
	return json.Marshal(records)
}

func toRecord(sig *Signature) signatureRecord {
	record := signatureRecord{
		Class:        signatureClass,
		HashFunction: hashFunction,
		Filename:     sig.Filename(),
		Name:         sig.name,
		License:      license,
		Signatures:   make([]sketchRecord, 0, len(sig.Sketches())),
		Version:      signatureVersion,
	}
	for _, sketch := range sig.Sketches() {
		sr := sketchRecord{
			KSize:    sketch.KSize(),
			Seed:     sketch.Seed(),
			Mins:     sketch.Hashes(),
			MD5Sum:   sketch.MD5Sum(),
			Molecule: sketch.MolType().String(),
		}
		switch s := sketch.(type) {
		case *minhash.KmerMinHash:
			sr.MaxHash = s.MaxHash()
		case *minhash.BottomK:
			sr.Num = s.Num()
		}
		record.Signatures = append(record.Signatures, sr)
	}
	return record
}

// Write encodes signatures to a writer, using the file extension conventions of Save
func Write(w io.Writer, sigs []*Signature, path string) error {
	binary := strings.HasSuffix(strings.TrimSuffix(path, ".gz"), ".mp")
	data, err := Encode(sigs, binary)
	if err != nil {
		return err
	}
	if strings.HasSuffix(path, ".gz") {
		gz := gzip.NewWriter(w)
		if _, err := gz.Write(data); err != nil {
			return err
		}
		return gz.Close()
	}
	_, err = w.Write(data)
	return err
}

// Save writes signatures to a file, using msgpack for .mp files and JSON otherwise (gzipped if the path ends in .gz)
func Save(path string, sigs []*Signature) error {
	fh, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Write(fh, sigs, path); err != nil {
		fh.Close()
		return err
	}
	return fh.Close()
}
