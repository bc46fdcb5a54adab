package driver

import (
	"fmt"
	"text/template"

	"deadlock/service/language"
)

var cppTemplate = template.Must(template.New("cpp").Parse(`#include <algorithm>
#include <climits>
#include <cmath>
#include <iostream>
#include <map>
#include <numeric>
#include <queue>
#include <set>
#include <sstream>
#include <stack>
#include <stdexcept>
#include <string>
#include <unordered_map>
#include <unordered_set>
#include <vector>

using namespace std;

{{.Code}}

namespace deadlock_driver {

string trim(const string& s) {
    size_t b = s.find_first_not_of(" \t\r\n");
    if (b == string::npos) return "";
    size_t e = s.find_last_not_of(" \t\r\n");
    return s.substr(b, e - b + 1);
}

vector<string> split_args(const string& raw) {
    vector<string> parts;
    if (raw.find('|') == string::npos) {
        if (!raw.empty()) parts.push_back(raw);
        return parts;
    }
    size_t start = 0;
    while (true) {
        size_t pos = raw.find('|', start);
        parts.push_back(trim(raw.substr(start, pos == string::npos ? string::npos : pos - start)));
        if (pos == string::npos) break;
        start = pos + 1;
    }
    return parts;
}

long long parse_int(const string& token) {
    string t = trim(token);
    size_t used = 0;
    long long v = 0;
    try {
        v = stoll(t, &used);
    } catch (const exception&) {
        throw invalid_argument("invalid integer: " + t);
    }
    if (used != t.size()) throw invalid_argument("invalid integer: " + t);
    return v;
}

string parse_string(const string& token) {
    string t = trim(token);
    if (t.size() >= 2 && (t.front() == '"' || t.front() == '\'') && t.back() == t.front()) {
        return t.substr(1, t.size() - 2);
    }
    return t;
}

vector<int> parse_int_array(const string& token) {
    string t = trim(token);
    if (!t.empty() && t.front() == '[') t = t.substr(1);
    if (!t.empty() && t.back() == ']') t.pop_back();
    vector<int> out;
    if (trim(t).empty()) return out;
    stringstream ss(t);
    string item;
    while (getline(ss, item, ',')) out.push_back((int) parse_int(item));
    return out;
}

char parse_char(const string& token) {
    string t = trim(token);
    if (t.size() < 2) throw invalid_argument("invalid char: " + t);
    return t[1];
}

void emit(ostream& os, bool v);
void emit(ostream& os, char v);
void emit(ostream& os, const string& v);
template <typename T> void emit(ostream& os, const vector<T>& v);

template <typename T> void emit(ostream& os, const T& v) { os << v; }

void emit(ostream& os, bool v) { os << (v ? "true" : "false"); }

void emit(ostream& os, char v) { os << '"' << v << '"'; }

void emit(ostream& os, const string& v) { os << '"' << v << '"'; }

template <typename T> void emit(ostream& os, const vector<T>& v) {
    os << '[';
    for (size_t i = 0; i < v.size(); ++i) {
        if (i) os << ',';
        emit(os, v[i]);
    }
    os << ']';
}

template <typename T> void print_result(const T& v) {
    emit(cout, v);
    cout << endl;
}

void print_result(const string& v) { cout << v << endl; }

void print_result(char v) { cout << v << endl; }

void print_result(const char* v) { cout << v << endl; }

}  // namespace deadlock_driver

int main() {
    try {
        string raw;
        if (!getline(cin, raw)) raw = "";
        vector<string> args = deadlock_driver::split_args(deadlock_driver::trim(raw));
        if (args.size() != (size_t) {{.Arity}}) {
            throw invalid_argument("expected {{.Arity}} arguments, got " + to_string(args.size()));
        }
{{- range .Bindings}}
        {{.Type}} {{.Var}} = {{.Parser}}(args[{{.Index}}]);
{{- end}}
        {{.ClassName}} sol;
        deadlock_driver::print_result(sol.{{.FunctionName}}({{.Args}}));
    } catch (const exception& e) {
        cerr << e.what() << endl;
        return 1;
    } catch (...) {
        cerr << "unknown error" << endl;
        return 1;
    }
    return 0;
}
`))

var cppParsers = map[Kind]string{
	KindInt:      "deadlock_driver::parse_int",
	KindString:   "deadlock_driver::parse_string",
	KindIntArray: "deadlock_driver::parse_int_array",
	KindChar:     "deadlock_driver::parse_char",
}

type cppGenerator struct{}

func (cppGenerator) Language() language.Language { return language.Cpp }

func (cppGenerator) Generate(h *Harness) (string, error) {
	bindings := make([]binding, len(h.Params))
	for i, p := range h.Params {
		parser, ok := cppParsers[p.Kind]
		if !ok {
			return "", unsupported(p)
		}
		bindings[i] = binding{Index: i, Type: p.Type, Var: fmt.Sprintf("arg%d", i), Parser: parser}
		if p.Kind == KindInt {
			bindings[i].Parser = fmt.Sprintf("(%s) %s", p.Type, parser)
		}
	}
	return render(cppTemplate, struct {
		*Harness
		Arity    int
		Bindings []binding
		Args     string
	}{h, len(bindings), bindings, argNames(bindings)})
}

func init() {
	register(cppGenerator{})
}
